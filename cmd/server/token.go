package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"condo-ballots/internal/domain/member"
	jwtpkg "condo-ballots/internal/platform/jwt"
)

func tokenCommand() *cobra.Command {
	var (
		memberID string
		tenantID string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if role != member.RoleAdmin && role != member.RoleUser {
				return fmt.Errorf("role must be %q or %q", member.RoleAdmin, member.RoleUser)
			}
			cfg := configFrom(cmd)
			tok, err := jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer).Generate(memberID, tenantID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member id")
	cmd.Flags().StringVar(&tenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&role, "role", member.RoleUser, "admin or user")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func memberCommand() *cobra.Command {
	var m member.Member
	cmd := &cobra.Command{
		Use:   "member-add",
		Short: "Register or update a tenant member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			logger := newLogger(cfg)

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.close()

			m.IsActive = true
			if err := st.members.Save(cmd.Context(), m); err != nil {
				return err
			}
			logger.Info("member saved", "tenant_id", m.TenantID, "member_id", m.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&m.ID, "id", "", "member id")
	cmd.Flags().StringVar(&m.TenantID, "tenant", "", "tenant id")
	cmd.Flags().StringVar(&m.Name, "name", "", "display name")
	cmd.Flags().StringVar(&m.Email, "email", "", "email address")
	cmd.Flags().StringVar(&m.Role, "role", member.RoleUser, "admin or user")
	for _, f := range []string{"id", "tenant", "name", "email"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
