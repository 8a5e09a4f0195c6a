package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/usergate/usergate/config"
	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/web"
	"github.com/usergate/usergate/web/controller"
	"github.com/usergate/usergate/web/service"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/spf13/cobra"
)

func initLogger() {
	switch config.GetLogLevel() {
	case config.Debug:
		logger.InitLogger(logging.DEBUG)
	case config.Info:
		logger.InitLogger(logging.INFO)
	case config.Notice:
		logger.InitLogger(logging.NOTICE)
	case config.Warn:
		logger.InitLogger(logging.WARNING)
	case config.Error:
		logger.InitLogger(logging.ERROR)
	default:
		log.Fatal("unknown log level:", config.GetLogLevel())
	}
}

// buildOptions assembles the gateway options from the environment. Admin
// role misconfiguration is fatal here, never a runtime fallback.
func buildOptions() (controller.Options, error) {
	adminRoles, err := config.ParseAdminRoles(config.GetAdminRolesValue())
	if err != nil {
		return controller.Options{}, err
	}

	return controller.Options{
		APIPrefix:      config.GetAPIPrefix(),
		SafeUserFields: config.GetSafeUserFields(),
		AdminRoles:     adminRoles,
		Verify:         config.GetVerify(),
		SessionMaxAge:  time.Duration(config.GetSessionMaxAge()) * time.Minute,
		CodeTTL:        config.GetCodeTTL(),
		App: service.AppInfo{
			Name: config.GetAppName(),
			URL:  config.GetAppURL(),
		},
		Email: service.EmailConfig{
			Host:        config.GetSMTPHost(),
			Port:        config.GetSMTPPort(),
			Username:    config.GetSMTPUsername(),
			Password:    config.GetSMTPPassword(),
			From:        config.GetEmailFrom(),
			TemplateDir: config.GetEmailTemplateDir(),
		},
	}, nil
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	_ = godotenv.Load()
	initLogger()

	if err := database.InitDB(config.GetDBPath()); err != nil {
		log.Fatal(err)
	}

	opts, err := buildOptions()
	if err != nil {
		log.Fatal(err)
	}

	server := web.NewServer(opts)
	if err := server.Start(); err != nil {
		log.Println(err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer(opts)
			if err := server.Start(); err != nil {
				log.Println(err)
				return
			}
		default:
			_ = server.Stop()
			return
		}
	}
}

// createUser bootstraps an account from the command line, typically the
// first admin, since the admin-create endpoint itself needs a session.
func createUser(name, password, email, roles string, verified bool) {
	_ = godotenv.Load()
	if err := database.InitDB(config.GetDBPath()); err != nil {
		fmt.Println(err)
		return
	}

	user := &model.User{
		Username: name,
		Email:    email,
		Roles:    model.Roles(strings.Split(roles, ",")),
		Enabled:  true,
	}
	userService := service.NewUserService(database.GetDB())
	if err := userService.Create(user, password); err != nil {
		fmt.Println("create user failed:", err)
		return
	}
	if verified {
		if err := userService.MarkVerified(user); err != nil {
			fmt.Println("mark user verified failed:", err)
			return
		}
	}
	fmt.Printf("created user %s (id %d)\n", user.Username, user.Id)
}

func main() {
	var rootCmd = &cobra.Command{
		Use: "usergate",
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var userCmd = &cobra.Command{
		Use:   "user",
		Short: "Manage users from the command line",
	}

	var createCmd = &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Run: func(cmd *cobra.Command, args []string) {
			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")
			email, _ := cmd.Flags().GetString("email")
			roles, _ := cmd.Flags().GetString("roles")
			verified, _ := cmd.Flags().GetBool("verified")
			createUser(name, password, email, roles, verified)
		},
	}

	createCmd.Flags().String("name", "", "user name")
	createCmd.Flags().String("password", "", "user password")
	createCmd.Flags().String("email", "", "user email address")
	createCmd.Flags().String("roles", "admin", "comma-separated roles")
	createCmd.Flags().Bool("verified", true, "mark the account as verified")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("password")
	createCmd.MarkFlagRequired("email")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	userCmd.AddCommand(createCmd)
	rootCmd.AddCommand(runCmd, userCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
