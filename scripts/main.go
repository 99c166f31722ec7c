package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rentdesk/rentdesk/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "issue-token",
		Description: "Issue a bearer token for a user (development only)",
		Run:         internal.IssueToken,
	},
	{
		Name:        "seed-tenancy",
		Description: "Create an active tenancy between a landlord and a tenant",
		Run:         internal.SeedTenancy,
	},
}

func main() {
	// Define command line flags
	var (
		listCommands bool
		cmdName      string
		userID       string
		role         string
		email        string
		landlordID   string
		tenantID     string
		baseRent     string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&userID, "user-id", "", "User ID the token is issued for")
	flag.StringVar(&role, "role", "", "Role carried by the token: landlord or tenant")
	flag.StringVar(&email, "user-email", "", "Email carried by the token")
	flag.StringVar(&landlordID, "landlord-id", "", "Landlord of the seeded tenancy")
	flag.StringVar(&tenantID, "tenant-id", "", "Tenant of the seeded tenancy")
	flag.StringVar(&baseRent, "base-rent", "", "Monthly base rent of the seeded tenancy")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	setenv := map[string]string{
		"USER_ID":     userID,
		"USER_ROLE":   role,
		"USER_EMAIL":  email,
		"LANDLORD_ID": landlordID,
		"TENANT_ID":   tenantID,
		"BASE_RENT":   baseRent,
	}
	for key, value := range setenv {
		if value != "" {
			os.Setenv(key, value)
		}
	}

	// Find and run the command
	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
