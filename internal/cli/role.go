package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/domain/user"
)

// NewRoleCommand creates the role command group.
func NewRoleCommand(rootOpts *RootOptions, factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Inspect and change user roles",
	}
	cmd.AddCommand(newRoleSetCommand(rootOpts, factory))
	return cmd
}

func newRoleSetCommand(rootOpts *RootOptions, factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "set <uid> <role>",
		Short: "Write users/{uid}.role",
		Long: `Write the role field of users/{uid}.

Live sessions of the user receive the change through their users/{uid}
subscription and drop their cached permission verdicts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), factory, func(rt *Runtime) error {
				return runRoleSet(cmd.Context(), rootOpts, rt, args[0], args[1], cmd.OutOrStdout())
			})
		},
	}
}

type roleSetResult struct {
	UID      string `json:"uid"`
	Previous string `json:"previous,omitempty"`
	Role     string `json:"role"`
}

func runRoleSet(ctx context.Context, opts *RootOptions, rt *Runtime, uid, role string, w io.Writer) error {
	uid = strings.TrimSpace(uid)
	r := user.Role(strings.ToLower(strings.TrimSpace(role)))
	if !user.IsValidRole(r) {
		return fmt.Errorf("unknown role %q: must be one of %v", role, user.RoleValues())
	}
	if rt.Roles == nil {
		return fmt.Errorf("role writer not configured")
	}

	res := roleSetResult{UID: uid, Role: string(r)}
	if rt.Users != nil {
		if rec, err := rt.Users.GetByID(ctx, uid); err == nil {
			res.Previous = string(rec.Role)
		}
	}
	if err := rt.Roles.SetRole(ctx, uid, r); err != nil {
		return fmt.Errorf("set role of %s: %w", uid, err)
	}
	if rt.Invalidate != nil {
		rt.Invalidate(uid)
	}

	p := printer{format: opts.Format, w: w}
	return p.emit(res, func(io.Writer) {
		if res.Previous != "" {
			p.linef("%s: %s -> %s", res.UID, res.Previous, res.Role)
			return
		}
		p.linef("%s: %s", res.UID, res.Role)
	})
}
