package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tailorworks/tailorshop-api/config"
	"github.com/tailorworks/tailorshop-api/middleware"
	"github.com/tailorworks/tailorshop-api/models"
	"github.com/tailorworks/tailorshop-api/services"
)

var rootCmd = &cobra.Command{
	Use:   "tailorshop-api",
	Short: "Tailor Shop API - orders, payments and reports for a tailoring workshop",
	Long: `Tailor Shop API tracks customers, their measurements, garment orders,
the payments taken against them and the reports the shop runs on that data.

Running without a subcommand starts the HTTP server.`,
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the first admin account",
	Long: `Create the first Admin employee so someone can sign in and add the rest
of the staff. Nothing happens when an admin already exists.`,
	RunE: runSeedAdmin,
}

var (
	skipMigrate  bool
	adminEmail   string
	adminName    string
	adminAuth0ID string
)

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
	rootCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")

	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email address")
	seedAdminCmd.Flags().StringVar(&adminName, "name", "", "admin full name")
	seedAdminCmd.Flags().StringVar(&adminAuth0ID, "auth0-id", "", "Auth0 subject of the admin (optional, otherwise linked on first login with a verified email)")
	_ = seedAdminCmd.MarkFlagRequired("email")
	_ = seedAdminCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(serveCmd, migrateCmd, seedAdminCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect loads configuration and opens the database
func connect() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.ConnectDatabase(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func migrate() error {
	if err := config.GetDB().AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migration completed successfully")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("Starting Tailor Shop API server...")

	cfg, err := connect()
	if err != nil {
		return err
	}
	if !skipMigrate {
		if err := migrate(); err != nil {
			return err
		}
	}

	if cfg.S3Enabled() {
		store, err := services.NewS3Store(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize S3: %w", err)
		}
		services.SetImageService(services.NewImageService(store))
		log.Printf("Order images stored in bucket %s", cfg.AWSS3Bucket)
	} else {
		log.Println("AWS_S3_BUCKET not set, order image uploads are disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg.CORSOrigins, middleware.EnsureValidToken(cfg))

	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	return router.Run(port)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if _, err := connect(); err != nil {
		return err
	}
	return migrate()
}

func runSeedAdmin(cmd *cobra.Command, args []string) error {
	if _, err := connect(); err != nil {
		return err
	}
	if err := migrate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db := config.GetDB()
	employees := services.NewEmployeeService(db, services.NewDBAuditSink(db))
	user, created, err := employees.SeedAdmin(ctx, services.EmployeeInput{
		FullName: adminName,
		Email:    adminEmail,
		Auth0ID:  adminAuth0ID,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if !created {
		log.Println("An admin already exists, nothing to do")
		return nil
	}
	log.Printf("Created admin %s <%s> (id %d)", user.FullName, user.Email, user.ID)
	return nil
}
