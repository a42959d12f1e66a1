// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/crsf.go/pkg/cli/cmds/link"
	_ "github.com/robotalks/crsf.go/pkg/cli/cmds/telemetry"
)
