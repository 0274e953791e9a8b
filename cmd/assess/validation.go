package assess

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/scan-io-git/identity-leak/internal/collector/file"
	"github.com/scan-io-git/identity-leak/internal/files"
)

var errMissingUsername = stderrors.New("a username must be specified, either with the 'username' flag or as the positional argument")

// validateAssessArgs validates the arguments provided to the assess command and resolves the
// username from the positional argument.
func validateAssessArgs(options *RunOptionsAssess, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("invalid argument(s) received, only one positional argument is allowed")
	}
	if len(args) == 1 {
		if options.Username != "" && options.Username != args[0] {
			return fmt.Errorf("you cannot use both the 'username' flag and a different positional username")
		}
		options.Username = args[0]
	}
	options.Username = strings.TrimPrefix(strings.TrimSpace(options.Username), "@")

	if options.Username == "" && options.InputFile == "" {
		return errMissingUsername
	}
	if strings.ContainsAny(options.Username, " \t\n/\\?#") {
		return fmt.Errorf("username %q contains characters not allowed in a handle", options.Username)
	}

	if options.InputFile != "" {
		path, err := files.ExpandPath(options.InputFile)
		if err != nil {
			return fmt.Errorf("failed to expand input path: %w", err)
		}
		if err := files.ValidatePath(path); err != nil {
			return fmt.Errorf("input file is not readable: %w", err)
		}
		options.InputFile = path
	}

	if options.Username == "" {
		for _, name := range options.Collectors {
			if !strings.EqualFold(strings.TrimSpace(name), file.Name) {
				return fmt.Errorf("the %q collector needs a username", name)
			}
		}
	}

	if options.Repository != "" && !strings.Contains(options.Repository, "://") && !strings.HasPrefix(options.Repository, "git@") {
		path, err := files.ExpandPath(options.Repository)
		if err != nil {
			return fmt.Errorf("failed to expand repository path: %w", err)
		}
		options.Repository = path
	}
	return nil
}
