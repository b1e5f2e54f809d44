package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bjrfx/mediacore/internal/app"
	"github.com/bjrfx/mediacore/internal/bootstrap"
	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/admin"
	adminsvc "github.com/bjrfx/mediacore/internal/http/services/admin"
	"github.com/bjrfx/mediacore/internal/security/password"
)

// cliActor identifica al operador en created_by y evita el chequeo de auto-modificación.
const cliActor = "cli"

// withAdmin abre store y cache, arma los services admin y ejecuta fn.
func withAdmin(ctx context.Context, g *globals, fn func(s adminsvc.Services, st repository.Store) error) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	c, err := app.OpenCache(ctx, cfg)
	if err != nil {
		return err
	}
	if c != nil {
		defer c.Close()
	}
	keys := app.NewAPIKeyService(cfg, st, c)
	defer keys.Wait()

	s := adminsvc.NewServices(adminsvc.Deps{Users: st.Users(), Refresh: st.RefreshTokens(), APIKeys: keys})
	return fn(s, st)
}

func newAPIKeyCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Administra API keys",
	}

	var (
		name        string
		preset      string
		permissions []string
		expiresIn   time.Duration
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea una API key (el valor se muestra una sola vez)",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreateAPIKeyRequest{Name: name, Preset: preset, Permissions: permissions}
			if expiresIn > 0 {
				exp := time.Now().Add(expiresIn).UTC()
				req.ExpiresAt = &exp
			}
			return withAdmin(cmd.Context(), g, func(s adminsvc.Services, _ repository.Store) error {
				k, err := s.APIKeys.Create(cmd.Context(), cliActor, req)
				if err != nil {
					return err
				}
				g.print(k, func() {
					fmt.Printf("id:          %s\n", k.ID)
					fmt.Printf("name:        %s\n", k.Name)
					fmt.Printf("permissions: %s\n", strings.Join(k.Permissions, ","))
					fmt.Printf("key:         %s\n", k.Key)
					fmt.Println("store this key now, it cannot be shown again")
				})
				return nil
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "Nombre descriptivo")
	create.Flags().StringVar(&preset, "preset", "read_only", "read_only | full_access | custom")
	create.Flags().StringSliceVar(&permissions, "permissions", nil, "Permisos (solo con --preset custom)")
	create.Flags().DurationVar(&expiresIn, "expires-in", 0, "Vencimiento relativo, ej. 720h (0 = no vence)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista las API keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), g, func(s adminsvc.Services, _ repository.Store) error {
				keys, err := s.APIKeys.List(cmd.Context())
				if err != nil {
					return err
				}
				g.print(keys, func() {
					for _, k := range keys {
						state := "active"
						if !k.IsActive {
							state = "revoked"
						}
						fmt.Printf("%s  %-10s %-8s %-20s %s\n", k.ID, k.Prefix, state, k.Name, strings.Join(k.Permissions, ","))
					}
				})
				return nil
			})
		},
	}

	revoke := &cobra.Command{
		Use:   "revoke <id>",
		Short: "Revoca una API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd.Context(), g, func(s adminsvc.Services, _ repository.Store) error {
				if err := s.APIKeys.Revoke(cmd.Context(), args[0]); err != nil {
					return err
				}
				g.print(map[string]string{"revoked": args[0]}, func() { fmt.Println("revoked", args[0]) })
				return nil
			})
		},
	}

	cmd.AddCommand(create, list, revoke)
	return cmd
}

func newUserCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Cambia rol y estado de cuentas",
	}

	// patch resuelve <email|uid> y aplica el cambio vía el service admin.
	patch := func(cmd *cobra.Command, who string, req dto.PatchUserRequest) error {
		return withAdmin(cmd.Context(), g, func(s adminsvc.Services, st repository.Store) error {
			uid := who
			if strings.Contains(who, "@") {
				u, err := st.Users().GetByEmail(cmd.Context(), strings.ToLower(strings.TrimSpace(who)))
				if err != nil {
					if repository.IsNotFound(err) {
						return fmt.Errorf("no user with email %s", who)
					}
					return err
				}
				uid = u.UID
			}
			u, err := s.Users.Patch(cmd.Context(), cliActor, uid, req)
			if err != nil {
				return err
			}
			g.print(u, func() { fmt.Printf("updated %s\n", uid) })
			return nil
		})
	}

	setRole := &cobra.Command{
		Use:   "set-role <email|uid> <user|moderator|admin>",
		Short: "Asigna el rol de una cuenta",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := args[1]
			return patch(cmd, args[0], dto.PatchUserRequest{Role: &role})
		},
	}
	disable := &cobra.Command{
		Use:   "disable <email|uid>",
		Short: "Deshabilita una cuenta y revoca sus sesiones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := true
			return patch(cmd, args[0], dto.PatchUserRequest{Disabled: &v})
		},
	}
	enable := &cobra.Command{
		Use:   "enable <email|uid>",
		Short: "Rehabilita una cuenta",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := false
			return patch(cmd, args[0], dto.PatchUserRequest{Disabled: &v})
		},
	}

	var adminEmail, adminName string
	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea una cuenta admin (pide email y password si faltan)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			st, err := app.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			hasher, err := password.NewHasher(password.HasherConfig{Cost: cfg.Auth.BcryptCost})
			if err != nil {
				return err
			}
			u, err := bootstrap.CreateAdmin(cmd.Context(), bootstrap.AdminConfig{
				Users:       st.Users(),
				Hasher:      hasher,
				Email:       adminEmail,
				Password:    os.Getenv("MEDIACORE_ADMIN_PASSWORD"),
				DisplayName: adminName,
			})
			if err != nil {
				return err
			}
			g.print(map[string]string{"uid": u.UID, "email": u.Email}, func() {
				fmt.Printf("admin created: %s (%s)\n", u.Email, u.UID)
			})
			return nil
		},
	}
	createAdmin.Flags().StringVar(&adminEmail, "email", "", "Email del admin")
	createAdmin.Flags().StringVar(&adminName, "name", "", "Display name")

	cmd.AddCommand(setRole, disable, enable, createAdmin)
	return cmd
}
