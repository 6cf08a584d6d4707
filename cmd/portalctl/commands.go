package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/portalauth"
	"github.com/MrEthical07/portalauth/login"
	"github.com/spf13/cobra"
)

var errInvalidForm = errors.New("email must look like name@host.tld and password must be at least 6 characters")

func (a *app) flow() (*login.Flow, error) {
	notifier := login.NotifierFunc(func(n login.Notice) {
		fmt.Fprintf(a.out, "[%s] %s\n", n.Level, n.Message)
	})
	return login.NewFlow(a.store, a.api, notifier, a.logger)
}

func newLoginCmd(a *app) *cobra.Command {
	var form login.Form

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the auth API and save the session",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")

	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		flow, err := a.flow()
		if err != nil {
			return err
		}

		outcome, err := flow.Submit(ctx, form)
		switch outcome {
		case login.OutcomeInvalid:
			if err != nil {
				return err
			}
			return errInvalidForm
		case login.OutcomeFailed:
			if flow.BypassOffered() {
				fmt.Fprintln(a.out, "auth service did not answer; run \"portalctl demo\" to enter anyway")
			}
			if flow.Mode() == login.ModeRegister {
				fmt.Fprintln(a.out, "run \"portalctl register\" to create the account")
			}
			return err
		}

		name, _ := a.store.StoredName(ctx)
		role, _ := a.store.StoredRole(ctx)
		fmt.Fprintf(a.out, "logged in as %s (%s)\n", name, role)
		return nil
	})
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		form  login.Form
		level string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account through the auth API",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&form.CandidateName, "name", "", "candidate name")
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	cmd.Flags().StringVar(&level, "level", string(portalauth.RoleStudent), "portal access level ("+roleList(portalauth.RegistrationRoles)+")")

	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		flow, err := a.flow()
		if err != nil {
			return err
		}
		flow.SwitchMode()

		form.AccessLevel = portalauth.Role(strings.ToUpper(level))
		outcome, err := flow.Submit(ctx, form)
		if outcome == login.OutcomeInvalid {
			if err != nil {
				return err
			}
			return errInvalidForm
		}
		return err
	})
	return cmd
}

func newDemoCmd(a *app) *cobra.Command {
	var (
		form  login.Form
		level string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Open a demo session without the auth API",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&form.CandidateName, "name", "", "display name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email, used as the name when --name is empty")
	cmd.Flags().StringVar(&level, "level", string(portalauth.RoleStudent), "access level ("+roleList(portalauth.RegistrationRoles)+")")

	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		flow, err := a.flow()
		if err != nil {
			return err
		}
		form.AccessLevel = portalauth.Role(strings.ToUpper(level))
		if err := flow.EnterAnyway(ctx, form); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "demo session for %s (%s)\n", form.DisplayName(), form.Level())
		return nil
	})
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Clear the session and return to the login page",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		return a.store.Logout(ctx)
	})
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		s := a.store
		role, _ := s.StoredRole(ctx)
		name, _ := s.StoredName(ctx)

		paths := make([]string, 0, len(portalauth.DashboardRoutes))
		for _, r := range s.VisibleRoutes(ctx) {
			paths = append(paths, r.Path)
		}

		fmt.Fprintf(a.out, "View:       %s\n", s.ViewID())
		fmt.Fprintf(a.out, "Storage:    %s\n", a.describeStorage())
		fmt.Fprintf(a.out, "Logged in:  %s\n", yesNo(s.IsLoggedIn()))
		fmt.Fprintf(a.out, "Role:       %s\n", orDash(role))
		fmt.Fprintf(a.out, "Name:       %s\n", orDash(name))
		fmt.Fprintf(a.out, "Admin view: %s\n", yesNo(s.IsAdminView(ctx)))
		fmt.Fprintf(a.out, "Admin only: %s\n", yesNo(s.IsAdminOnly(ctx)))
		fmt.Fprintf(a.out, "Routes:     %s\n", orDash(strings.Join(paths, " ")))
		return nil
	})
	return cmd
}

func newGuardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guard <path>",
		Short: "Check whether this view may open a dashboard route",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = a.run(func(ctx context.Context, args []string) error {
		path := args[0]
		route, ok := portalauth.RouteFor(path)
		if !ok {
			return fmt.Errorf("unknown route %q", path)
		}

		guard, err := portalauth.NewAccessGuard(a.store)
		if err != nil {
			return err
		}
		if !guard.CanActivate(ctx) {
			fmt.Fprintf(a.out, "%s: denied, not logged in\n", path)
			return nil
		}

		role, _ := a.store.StoredRole(ctx)
		if !route.Allows(portalauth.Role(role)) {
			fmt.Fprintf(a.out, "%s: hidden for role %s\n", path, orDash(role))
			return nil
		}
		fmt.Fprintf(a.out, "%s: allowed (%s)\n", path, route.Title)
		return nil
	})
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print session changes made by other views",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().DurationVar(&duration, "for", 0, "stop after this long (0 waits for an interrupt)")

	cmd.RunE = a.run(func(ctx context.Context, _ []string) error {
		if !a.store.Config().Watch.Enabled {
			return errors.New("watching is disabled (PORTAL_WATCH_ENABLED=false)")
		}
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		fmt.Fprintf(a.out, "view %s watching %s, logged in: %s\n",
			a.store.ViewID(), a.describeStorage(), yesNo(a.store.IsLoggedIn()))

		unsubscribe := a.store.Subscribe(func(st portalauth.TokenState) {
			fmt.Fprintf(a.out, "%s logged in: %s\n", time.Now().Format(time.TimeOnly), yesNo(st.LoggedIn))
		})
		defer unsubscribe()

		<-ctx.Done()
		return nil
	})
	return cmd
}

func (a *app) describeStorage() string {
	if a.opts.backend == "redis" {
		return "redis " + a.opts.redisAddr + " prefix " + a.opts.redisPrefix
	}
	return "file " + a.opts.file
}

func roleList(roles []portalauth.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.String()
	}
	return strings.Join(names, ", ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
