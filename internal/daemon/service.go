package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/template"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

const (
	launchdLabel = "com.driverhelper.daemon"
	systemdUnit  = "driverhelper.service"
)

// forwardedEnvPrefixes are copied from the installing shell into the unit
// so the service sees the same sink and connectivity settings.
var forwardedEnvPrefixes = []string{"DRIVERHELPER_", "CLOUD_SYNC_", "SUPABASE_"}

// ServiceManager installs the daemon as a launchd agent or systemd user unit.
type ServiceManager struct {
	executablePath string
	goos           string
	run            func(name string, args ...string) ([]byte, error)
}

// NewServiceManager creates a service manager for the running executable.
func NewServiceManager() (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}

	return &ServiceManager{
		executablePath: execPath,
		goos:           runtime.GOOS,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}, nil
}

// Install writes the unit file and loads it.
func (m *ServiceManager) Install() error {
	switch m.goos {
	case "darwin":
		return m.install(m.launchdPath(), launchdTemplate,
			[]string{"launchctl", "load", m.launchdPath()})
	case "linux":
		return m.install(m.systemdPath(), systemdTemplate,
			[]string{"systemctl", "--user", "daemon-reload"},
			[]string{"systemctl", "--user", "enable", "--now", systemdUnit})
	default:
		return fmt.Errorf("service installation not supported on %s", m.goos)
	}
}

// Uninstall unloads the unit and removes its file.
func (m *ServiceManager) Uninstall() error {
	switch m.goos {
	case "darwin":
		return m.uninstall(m.launchdPath(),
			[]string{"launchctl", "unload", m.launchdPath()})
	case "linux":
		return m.uninstall(m.systemdPath(),
			[]string{"systemctl", "--user", "disable", "--now", systemdUnit},
			[]string{"systemctl", "--user", "daemon-reload"})
	default:
		return fmt.Errorf("service removal not supported on %s", m.goos)
	}
}

// IsInstalled checks if the unit file exists.
func (m *ServiceManager) IsInstalled() bool {
	path := m.UnitPath()
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// UnitPath returns the unit file location for this platform, or "".
func (m *ServiceManager) UnitPath() string {
	switch m.goos {
	case "darwin":
		return m.launchdPath()
	case "linux":
		return m.systemdPath()
	default:
		return ""
	}
}

func (m *ServiceManager) install(path string, tmpl *template.Template, cmds ...[]string) error {
	content, err := m.render(tmpl)
	if err != nil {
		return err
	}
	if err := storage.SafeWrite(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	for _, c := range cmds {
		if out, err := m.run(c[0], c[1:]...); err != nil {
			return fmt.Errorf("%s failed: %w: %s", strings.Join(c, " "), err, strings.TrimSpace(string(out)))
		}
	}

	logging.DebugLog("service installed", "path", path)
	return nil
}

func (m *ServiceManager) uninstall(path string, cmds ...[]string) error {
	// Not loaded or not enabled is fine here.
	for _, c := range cmds {
		_, _ = m.run(c[0], c[1:]...)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}

	logging.DebugLog("service removed", "path", path)
	return nil
}

type unitData struct {
	Label          string
	ExecutablePath string
	LogPath        string
	HomeDirectory  string
	DataHome       string
	StateHome      string
	Env            []envVar
}

type envVar struct {
	Key, Value string
}

func (m *ServiceManager) render(tmpl *template.Template) ([]byte, error) {
	data := unitData{
		Label:          launchdLabel,
		ExecutablePath: m.executablePath,
		LogPath:        GetStartupLogPath(),
		HomeDirectory:  os.Getenv("HOME"),
		DataHome:       xdg.DataHome,
		StateHome:      xdg.StateHome,
		Env:            forwardedEnv(os.Environ()),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render unit: %w", err)
	}
	return buf.Bytes(), nil
}

func forwardedEnv(environ []string) []envVar {
	var vars []envVar
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, prefix := range forwardedEnvPrefixes {
			if strings.HasPrefix(key, prefix) {
				vars = append(vars, envVar{key, value})
				break
			}
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}

func (m *ServiceManager) launchdPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", launchdLabel+".plist")
}

func (m *ServiceManager) systemdPath() string {
	return filepath.Join(xdg.ConfigHome, "systemd", "user", systemdUnit)
}

var launchdTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>daemon</string>
        <string>start</string>
        <string>--foreground</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
{{- if .Env}}
    <key>EnvironmentVariables</key>
    <dict>
{{- range .Env}}
        <key>{{.Key}}</key>
        <string>{{.Value}}</string>
{{- end}}
    </dict>
{{- end}}
</dict>
</plist>
`))

var systemdTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description=Driver Helper sync daemon
After=network-online.target

[Service]
Type=simple
ExecStart={{.ExecutablePath}} daemon start --foreground
Restart=on-failure
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
Environment="HOME={{.HomeDirectory}}"
Environment="XDG_DATA_HOME={{.DataHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"
{{- range .Env}}
Environment="{{.Key}}={{.Value}}"
{{- end}}

[Install]
WantedBy=default.target
`))
