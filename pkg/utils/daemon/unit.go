package daemon

import (
	"strings"
)

const unitTemplate = `[Unit]
Description=appraise valuation calibration daemon
After=network.target

[Service]
Type=simple
ExecStart=/path/to/appraise daemon --config /path/to/config
ExecReload=/bin/kill -HUP $MAINPID
Restart=on-failure
RestartSec=5

[Install]
WantedBy=multi-user.target
`

// RenderUnit returns the systemd unit that runs exePath as the daemon.
func RenderUnit(exePath, configPath string) string {
	return strings.NewReplacer(
		"/path/to/appraise", exePath,
		"/path/to/config", configPath,
	).Replace(unitTemplate)
}
