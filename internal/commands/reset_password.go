package commands

import (
	"context"
	"errors"
	"time"

	"cybercase/internal/access"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/output"
	"cybercase/internal/security"
	"cybercase/internal/webconfig"
)

func ResetPassword(args []string) int {
	if len(args) < 2 {
		output.Errorf("usage: cybercase reset-password <username> <new-password>\n")
		return 2
	}

	username := args[0]
	newPassword := args[1]

	if len(newPassword) < security.MinPasswordLength {
		output.Errorf("error: password must be at least %d characters\n", security.MinPasswordLength)
		return 1
	}

	cfg, err := webconfig.Load()
	if err != nil {
		output.Errorf("failed to load config: %v\n", err)
		return 1
	}

	logger.Init(cfg.Log)

	// No bootstrap seeding here: an empty username skips it.
	if err := database.Init(cfg.Database, database.BootstrapAdmin{}, false); err != nil {
		output.Errorf("database init failed: %v\n", err)
		return 1
	}
	defer database.Close()

	return resetPassword(username, newPassword)
}

func resetPassword(username, newPassword string) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := access.NewService().ResetPassword(ctx, username, newPassword)
	if errors.Is(err, database.ErrUserNotFound) {
		output.Errorf("user %s does not exist\n", username)
		return 1
	}
	if err != nil {
		output.Errorf("password update failed: %v\n", err)
		return 1
	}

	output.Printf("%s password for %s has been reset\n", output.Colorize("success", "✓"), username)
	return 0
}
