package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"leadtrack/config"
	"leadtrack/internal/repository"
	"leadtrack/internal/service"
)

func main() {
	username := flag.String("username", "", "Username of the new superuser")
	email := flag.String("email", "", "Email address")
	firstName := flag.String("first-name", "", "First name")
	lastName := flag.String("last-name", "", "Last name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogLevel)

	if *username == "" || *email == "" {
		logger.Fatal("-username and -email are required")
	}

	// Read the password from the environment or stdin so it stays out of
	// shell history.
	password := os.Getenv("SUPERUSER_PASSWORD")
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			logger.WithError(err).Fatal("read password")
		}
		password = strings.TrimRight(line, "\r\n")
	}

	db, err := config.ConnectionDb(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	if err := config.Migrate(db); err != nil {
		logger.WithError(err).Fatal("migrate database")
	}

	admin := service.NewAdminService(
		repository.NewUserRepository(db),
		repository.NewTokenRecordRepository(db),
		repository.NewSessionRepository(db),
		repository.NewSecurityLogRepository(db),
		service.BcryptPasswordHasher{Cost: cfg.BcryptCost},
		service.RealClock{},
		cfg.AdminPageSize,
		logger,
	)
	user, err := admin.CreateSuperuser(context.Background(), service.SuperuserInput{
		Username:  *username,
		Email:     *email,
		FirstName: *firstName,
		LastName:  *lastName,
		Password:  password,
	})
	if err != nil {
		logger.WithError(err).Fatal("create superuser")
	}
	fmt.Printf("Superuser %s created (%s)\n", user.Username, user.ID)
}
