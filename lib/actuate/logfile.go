package actuate

import (
	"errors"
	"io/fs"
	"os"

	convCfg "github.com/sofmon/actuator/lib/cfg"
	convCtx "github.com/sofmon/actuator/lib/ctx"
	"github.com/sofmon/actuator/lib/endpoint"
)

const configKeyLoggingFile convCfg.ConfigKey = "logging_file"

// LogFileEndpoint serves the content of a log file.
type LogFileEndpoint struct {
	path string
}

func NewLogFileEndpoint(path string) *LogFileEndpoint {
	return &LogFileEndpoint{path: path}
}

// LogFileFromConfig returns nil when "logging_file" is not configured.
func LogFileFromConfig() *LogFileEndpoint {
	path := convCfg.StringOrDefault(configKeyLoggingFile, "")
	if path == "" {
		return nil
	}
	return NewLogFileEndpoint(path)
}

func (l *LogFileEndpoint) Endpoint() endpoint.Definition {
	return endpoint.Define(IDLogFile,
		endpoint.Read("logFile", func(ctx convCtx.Context, _ endpoint.Arguments) (any, error) {
			data, err := os.ReadFile(l.path)
			if errors.Is(err, fs.ErrNotExist) {
				ctx.Logger().Debug("log file does not exist", "path", l.path)
				return nil, nil
			}
			if err != nil {
				return nil, err
			}
			return &endpoint.Response{ContentType: "text/plain; charset=utf-8", Body: endpoint.Resource(data)}, nil
		}),
	)
}
