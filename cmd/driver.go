package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"booking-service/internal/drivers"
	"booking-service/migrations"
	"booking-service/pkg/config"
	"booking-service/pkg/db"
	"booking-service/pkg/jwt"
)

func newDriverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "driver",
		Short: "Manage driver accounts",
	}
	cmd.AddCommand(newDriverCreateCmd())
	cmd.AddCommand(newDriverTokenCmd())
	return cmd
}

func newDriverCreateCmd() *cobra.Command {
	var req drivers.DriverRequest

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a driver who can log in to the driver API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(d *db.DB) error {
				if err := d.RunMigrations(migrations.FS); err != nil {
					return err
				}
				svc := drivers.NewService(drivers.NewRepo(d.Pool), nil)
				drv, err := svc.Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stdout, "created driver %s (%s)\n", drv.ID, drv.Email)
				return nil
			})
		},
	}

	c.Flags().StringVar(&req.Name, "name", "", "display name")
	c.Flags().StringVar(&req.Email, "email", "", "login email")
	c.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	c.Flags().StringVar(&req.Password, "password", "", "login password (min 8 chars)")
	c.Flags().StringVar(&req.WorkMode, "work-mode", "", "24h or custom")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func newDriverTokenCmd() *cobra.Command {
	var id string

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed driver token without a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			signer, err := jwt.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(d *db.DB) error {
				token, err := drivers.NewService(drivers.NewRepo(d.Pool), signer).Token(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stdout, token)
				return nil
			})
		},
	}
	c.Flags().StringVar(&id, "id", "", "driver id")
	_ = c.MarkFlagRequired("id")
	return c
}
