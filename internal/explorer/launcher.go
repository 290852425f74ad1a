package explorer

import (
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// CommandLauncher opens files with an external command.
type CommandLauncher struct {
	name string
	args []string
}

// NewLauncher returns a launcher running command with the path appended.
// An empty command selects the platform default opener.
func NewLauncher(command string) *CommandLauncher {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		switch runtime.GOOS {
		case "darwin":
			fields = []string{"open"}
		case "windows":
			fields = []string{"rundll32", "url.dll,FileProtocolHandler"}
		default:
			fields = []string{"xdg-open"}
		}
	}
	return &CommandLauncher{name: fields[0], args: fields[1:]}
}

// Launch starts the opener without waiting for the application to exit.
func (l *CommandLauncher) Launch(path string) error {
	args := append(append([]string{}, l.args...), path)
	cmd := exec.Command(l.name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Debug("explorer: opener exited", slog.String("path", path), slog.String("error", err.Error()))
		}
	}()
	return nil
}
