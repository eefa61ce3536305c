package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// Credentials are collected by PromptForCredentials.
type Credentials struct {
	Email    string
	Password string
}

// PromptForCredentials asks for whichever of email and password is still
// empty in c.
func PromptForCredentials(c Credentials) (Credentials, error) {
	var fields []huh.Field
	if c.Email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(&c.Email).
			Validate(required("email")))
	}
	if c.Password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&c.Password).
			Validate(required("password")))
	}
	if len(fields) == 0 {
		return c, nil
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return Credentials{}, fmt.Errorf("prompt failed: %w", err)
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

// PromptForRegistration fills the empty fields of req.
func PromptForRegistration(req auth.RegisterRequest) (auth.RegisterRequest, error) {
	role := string(req.Role)
	if role == "" {
		role = string(session.RoleUser)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&req.Email).Validate(required("email")),
			huh.NewInput().Title("Full name").Value(&req.FullName).Validate(required("full name")),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("User (uploads documents)", string(session.RoleUser)),
					huh.NewOption("Reviewer (reviews everyone's documents)", string(session.RoleReviewer)),
				).
				Value(&role),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&req.Password).Validate(required("password")),
		),
	)
	if err := form.Run(); err != nil {
		return auth.RegisterRequest{}, fmt.Errorf("prompt failed: %w", err)
	}
	req.Role = session.Role(role)
	return req, nil
}

// PromptForConfirmation displays a yes/no confirmation prompt
func PromptForConfirmation(message string, defaultValue bool) (bool, error) {
	confirmed := defaultValue

	confirm := huh.NewConfirm().
		Title(message).
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(confirm)).Run(); err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return confirmed, nil
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

// IsInteractive returns true if stdin is a terminal (not piped)
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// ShouldPrompt returns true if prompts should be shown based on environment
// Prompts are disabled in CI environments or when stdin is not a terminal
func ShouldPrompt() bool {
	for _, envVar := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "BUILDKITE"} {
		if os.Getenv(envVar) != "" {
			return false
		}
	}
	return IsInteractive()
}
