package verify

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/levelcheck/pkg/browser"
	"github.com/entrhq/levelcheck/pkg/config"
)

const levelSelectPage = `<!DOCTYPE html>
<html>
<head>
<style>
  body { margin: 0; }
  #game-ui { display: none; }
  #course { width: 800px; height: 600px; background: #4caf50; }
</style>
</head>
<body>
<div id="level-selection-screen"></div>
<div id="game-ui"><div id="course"></div></div>
<script>
  console.log("booting");
  const screen = document.getElementById("level-selection-screen");
  const btn = document.createElement("button");
  btn.className = "level-btn";
  btn.textContent = "{{LABEL}}";
  btn.addEventListener("click", () => {
    screen.style.display = "none";
    document.getElementById("game-ui").style.display = "block";
  });
  screen.appendChild(btn);
</script>
</body>
</html>`

const emptyPage = `<!DOCTYPE html>
<html>
<body>
<div id="level-selection-screen"></div>
<script>
  console.log("booting");
  console.log("Game over or course not found");
</script>
</body>
</html>`

func startGameServer(t *testing.T, page string) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server.URL + "/index.html"
}

// launchOrSkip opens a real browser session, skipping when the driver or
// browser binary is not installed on this machine.
func launchOrSkip(t *testing.T, driver string) browser.Session {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}

	session, err := browser.Launch(context.Background(), browser.Options{
		Driver:        driver,
		Headless:      true,
		ActionTimeout: 2 * time.Second,
		AssertTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Skipf("%s not available: %v", driver, err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func runAgainst(t *testing.T, driver, page string, target config.TargetConfig) (*Result, string) {
	t.Helper()
	session := launchOrSkip(t, driver)
	target.URL = startGameServer(t, page)

	var out bytes.Buffer
	runner := NewRunner(target, func(ctx context.Context) (browser.Session, error) {
		return session, nil
	}, WithOutput(&out))

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	return result, out.String()
}

func testTarget(t *testing.T) config.TargetConfig {
	target := config.DefaultConfig().Target
	target.ScreenshotPath = filepath.Join(t.TempDir(), "jules-scratch", "verification", "verification.png")
	return target
}

var drivers = []string{browser.DriverPlaywright, browser.DriverChromedp}

func TestEndToEnd_CourseScreenshot(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			target := testTarget(t)
			page := strings.Replace(levelSelectPage, "{{LABEL}}", "Level 1", 1)

			result, out := runAgainst(t, driver, page, target)

			assert.Empty(t, out)
			assert.Equal(t, StatusPassed, result.Status)

			f, err := os.Open(target.ScreenshotPath)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.DecodeConfig(f)
			require.NoError(t, err)
			assert.Equal(t, 800, img.Width)
			assert.Equal(t, 600, img.Height)
		})
	}
}

func TestEndToEnd_ScreenshotOverwritten(t *testing.T) {
	target := testTarget(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(target.ScreenshotPath), 0755))
	require.NoError(t, os.WriteFile(target.ScreenshotPath, []byte("stale"), 0644))

	page := strings.Replace(levelSelectPage, "{{LABEL}}", "Level 1", 1)
	result, _ := runAgainst(t, browser.DriverPlaywright, page, target)
	require.True(t, result.Passed())

	data, err := os.ReadFile(target.ScreenshotPath)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("stale"), data)
}

func TestEndToEnd_LevelButtonsNeverAppear(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			target := testTarget(t)
			target.ReadyTimeout = 500 * time.Millisecond

			result, out := runAgainst(t, driver, emptyPage, target)

			assert.True(t, strings.HasPrefix(out, TimeoutMessage+"\n"+ConsoleHeader+"\n"), out)
			assert.Contains(t, out, "booting\nGame over or course not found\n")
			assert.Equal(t, StatusTimedOut, result.Status)
			assert.Equal(t, "wait for .level-btn", result.FailedStep)

			_, err := os.Stat(target.ScreenshotPath)
			assert.True(t, os.IsNotExist(err), "no screenshot on timeout")
		})
	}
}

func TestEndToEnd_HiddenLevelButtonTimesOut(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			target := testTarget(t)
			target.ReadyTimeout = 500 * time.Millisecond
			page := strings.Replace(levelSelectPage, "{{LABEL}}", "Level 1", 1)
			page = strings.Replace(page, "body { margin: 0; }", "body { margin: 0; }\n  .level-btn { display: none; }", 1)

			result, out := runAgainst(t, driver, page, target)

			assert.True(t, strings.HasPrefix(out, TimeoutMessage+"\n"+ConsoleHeader+"\n"), out)
			assert.Equal(t, StatusTimedOut, result.Status)
			assert.Equal(t, "wait for .level-btn", result.FailedStep)
		})
	}
}

func TestEndToEnd_RenamedLevelButton(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			target := testTarget(t)
			page := strings.Replace(levelSelectPage, "{{LABEL}}", "Stage 1", 1)

			result, out := runAgainst(t, driver, page, target)

			assert.True(t, strings.HasPrefix(out, TimeoutMessage+"\n"+ConsoleHeader+"\n"), out)
			assert.Equal(t, StatusTimedOut, result.Status)
			assert.Equal(t, `click button "Level 1"`, result.FailedStep)
		})
	}
}

func TestEndToEnd_LevelButtonNameIgnoresCase(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			target := testTarget(t)
			page := strings.Replace(levelSelectPage, "{{LABEL}}", "LEVEL 1", 1)

			result, out := runAgainst(t, driver, page, target)

			assert.Empty(t, out)
			assert.Equal(t, StatusPassed, result.Status)
		})
	}
}

func TestEndToEnd_UnresponsiveServerIsFatal(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			session := launchOrSkip(t, driver)

			release := make(chan struct{})
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			t.Cleanup(server.Close)
			t.Cleanup(func() { close(release) })

			target := testTarget(t)
			target.URL = server.URL + "/index.html"

			var out bytes.Buffer
			runner := NewRunner(target, func(ctx context.Context) (browser.Session, error) {
				return session, nil
			}, WithOutput(&out))

			result, err := runner.Run(context.Background())
			require.Error(t, err)
			assert.Nil(t, result)
			assert.False(t, browser.IsTimeout(err))
			assert.Contains(t, err.Error(), "navigate to "+target.URL)
			assert.Empty(t, out.String())
		})
	}
}
