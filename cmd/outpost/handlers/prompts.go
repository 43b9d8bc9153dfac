package handlers

import (
	"context"

	"github.com/charmbracelet/huh"

	"github.com/outpost-sh/outpost/internal/destroy"
)

// promptManualRecords asks whether the listed DNS records have been
// created. Swapped in tests.
var promptManualRecords = func(ctx context.Context) (bool, error) {
	confirmed := false
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Have you created these DNS records?").
				Description("Verification resolves each hostname and checks the address.").
				Value(&confirmed),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// promptProceed asks whether to execute the printed plan. Swapped in
// tests.
var promptProceed = func(ctx context.Context) (bool, error) {
	proceed := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Proceed with these steps?").
				Value(&proceed),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, err
	}
	return proceed, nil
}

// promptDestroyToken asks for the destroy confirmation token. Swapped
// in tests.
var promptDestroyToken = func(ctx context.Context) (string, error) {
	token := ""
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("This deletes every recorded instance and managed DNS record.").
				Description("Type " + destroy.ConfirmationToken + " to confirm.").
				Value(&token),
		),
	).RunWithContext(ctx)
	if err != nil {
		return "", err
	}
	return token, nil
}
