package collectors

import "fmt"

// validateCollectorsArgs validates the arguments provided to the collectors command.
func validateCollectorsArgs(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("invalid argument(s) received, the collectors command takes no positional arguments")
	}
	return nil
}
