package util

import (
	"strings"

	"github.com/ValentinKolb/dObs/lib/common"
	"github.com/ValentinKolb/dObs/lib/dispatch"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Logger is shared by all commands
var Logger = logger.GetLogger(common.LoggerCLI)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig loads .env files and maps DOBS_* environment variables onto flags
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("dobs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SetupWorkloadFlags adds the flags shared by commands that drive a list from many goroutines
func SetupWorkloadFlags(cmd *cobra.Command) {
	key := "workers"
	cmd.Flags().Int(key, 4, WrapString("Number of goroutines mutating the list concurrently"))

	key = "priority"
	cmd.Flags().String(key, dispatch.PriorityBackground.String(), WrapString("Priority of list mutations on the owner (idle, background, normal, high)"))

	key = "name"
	cmd.Flags().String(key, "", WrapString("Name of the list, used as metric label and log prefix (random if empty)"))
}

// GetPriority reads the configured dispatch priority
func GetPriority() (dispatch.Priority, error) {
	return dispatch.ParsePriority(viper.GetString("priority"))
}
