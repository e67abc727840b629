package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/credpanel/internal/application"
	"github.com/ericfisherdev/credpanel/internal/domain/model"
)

type seedCredential struct {
	name        string
	environment model.Environment
	serviceType model.ServiceType
	username    string
	password    string
	url         string
	notes       string
	tags        []string
	// restrictTo lists seed user emails; empty means visible to everyone.
	restrictTo []string
}

type seedClient struct {
	client      application.ClientInput
	credentials []seedCredential
}

var seedUsers = []application.RegisterInput{
	{Name: "John Doe", Email: "john.doe@company.com", Password: "password123", Role: "Senior Developer"},
	{Name: "Admin User", Email: "admin@company.com", Password: "admin123", Role: "Administrator"},
	{Name: "Jane Smith", Email: "jane.smith@company.com", Password: "jane2024!", Role: "DevOps Engineer"},
}

var seedClients = []seedClient{
	{
		client: application.ClientInput{
			Name:        "Acme Corporation",
			Description: "E-commerce platform with multi-tenant architecture",
			Initials:    "AC",
			Color:       "#06b6d4",
		},
		credentials: []seedCredential{
			{
				name: "PostgreSQL Production", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeDatabase,
				username: "acme_prod_user", password: "Pr0d$ecure#2024!",
				url:   "postgresql://db.acme.com:5432/production",
				notes: "Main production database. **Handle with care.**",
				tags:  []string{"critical", "production"},
			},
			{
				name: "Stripe API Key", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeAPI,
				username: "sk_live_acme", password: "sk_live_51Hb2e8K9xxxxxxxxxxxxx",
				url:   "https://dashboard.stripe.com",
				notes: "Production Stripe keys for payment processing",
				tags:  []string{"payments", "api"},
			},
			{
				name: "AWS Console", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeCloud,
				username: "acme-admin@aws.com", password: "AWS@cme2024!Secure",
				url:        "https://acme.signin.aws.amazon.com/console",
				notes:      "AWS root account access",
				tags:       []string{"cloud", "aws", "critical"},
				restrictTo: []string{"admin@company.com"},
			},
			{
				name: "PostgreSQL Staging", environment: model.EnvironmentStaging, serviceType: model.ServiceTypeDatabase,
				username: "acme_staging_user", password: "St@g1ng#2024",
				url:  "postgresql://staging.acme.com:5432/staging",
				tags: []string{"staging", "database"},
			},
			{
				name: "MongoDB Development", environment: model.EnvironmentDevelopment, serviceType: model.ServiceTypeDatabase,
				username: "dev_user", password: "dev123!@#",
				url:  "mongodb://localhost:27017/acme_dev",
				tags: []string{"development", "local"},
			},
		},
	},
	{
		client: application.ClientInput{
			Name:        "TechStart Inc",
			Description: "SaaS Application for project management",
			Initials:    "TS",
			Color:       "#8b5cf6",
		},
		credentials: []seedCredential{
			{
				name: "MongoDB Atlas Production", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeDatabase,
				username: "techstart_prod", password: "M0ng0@tl@s#Pr0d",
				url:  "mongodb+srv://cluster.mongodb.net/techstart",
				tags: []string{"database", "production"},
			},
			{
				name: "Environment Variables", environment: model.EnvironmentStaging, serviceType: model.ServiceTypeEnv,
				username: "staging", password: "JWT_SECRET=staging-only-secret",
				notes:      "Copy into `.env.staging` before deploying.",
				tags:       []string{"env", "staging"},
				restrictTo: []string{"jane.smith@company.com", "admin@company.com"},
			},
		},
	},
	{
		client: application.ClientInput{
			Name:        "Global Finance",
			Description: "Financial Dashboard and Analytics Platform",
			Initials:    "GF",
			Color:       "#f59e0b",
		},
		credentials: []seedCredential{
			{
				name: "Oracle Database", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeDatabase,
				username: "gf_admin", password: "0r@cle#Fin2024",
				url:   "oracle://db.globalfinance.com:1521/PROD",
				notes: "Requires VPN access",
				tags:  []string{"database", "critical"},
			},
			{
				name: "Bloomberg API", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeAPI,
				username: "gf_bloomberg", password: "bb_api_key_xxxxx",
				url:  "https://api.bloomberg.com",
				tags: []string{"api", "market-data"},
			},
		},
	},
	{
		client: application.ClientInput{
			Name:        "HealthCare Plus",
			Description: "Healthcare management system",
			Initials:    "HC",
			Color:       "#10b981",
		},
		credentials: []seedCredential{
			{
				name: "Azure Portal", environment: model.EnvironmentProduction, serviceType: model.ServiceTypeCloud,
				username: "admin@healthcareplus.onmicrosoft.com", password: "Azur3#H3alth!",
				url:   "https://portal.azure.com",
				notes: "HIPAA compliant environment",
				tags:  []string{"cloud", "azure", "hipaa"},
			},
			{
				name: "Epic EHR Sandbox", environment: model.EnvironmentDevelopment, serviceType: model.ServiceTypeOther,
				username: "hcp_dev", password: "ep1c-s@ndbox",
				url:  "https://sandbox.epic.com",
				tags: []string{"development", "ehr"},
			},
		},
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, clients and credentials",
	Long: `Creates demo accounts, clients and credentials through the application
services so secrets are encrypted with the configured key. Users and clients
that already exist are skipped; credentials are only added to clients created
by this run. Credentials are owned by the first demo user.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Println(color.CyanString("→") + " Seeding users")
		users, err := seedAllUsers(ctx, a)
		if err != nil {
			return err
		}
		owner := users[seedUsers[0].Email]

		fmt.Println(color.CyanString("→") + " Seeding clients and credentials")
		var created int
		for _, sc := range seedClients {
			client, err := a.clients.Create(ctx, sc.client)
			if errors.Is(err, application.ErrValidation) {
				fmt.Printf("  %s %s: %s\n", color.YellowString("⚠"), sc.client.Name, err)
				continue
			}
			if err != nil {
				return fmt.Errorf("seed client %s: %w", sc.client.Name, err)
			}

			for _, c := range sc.credentials {
				if _, err := a.credentials.Create(ctx, owner, c.input(client.ID, users)); err != nil {
					return fmt.Errorf("seed credential %s/%s: %w", sc.client.Name, c.name, err)
				}
				created++
			}
			fmt.Printf("  %s %s (%d credentials)\n", color.GreenString("✓"), client.Name, len(sc.credentials))
		}

		fmt.Println()
		fmt.Printf("%s Seeded %s credentials\n", color.GreenString("✓"), color.GreenString(fmt.Sprint(created)))
		fmt.Println("  Demo logins:")
		for _, u := range seedUsers {
			fmt.Printf("    %-24s %s\n", u.Email, color.YellowString(u.Password))
		}
		return nil
	},
}

// seedAllUsers registers the demo users, logging in any that already exist,
// and returns them keyed by email.
func seedAllUsers(ctx context.Context, a *app) (map[string]model.User, error) {
	users := make(map[string]model.User, len(seedUsers))
	for _, in := range seedUsers {
		sess, err := a.auth.Register(ctx, in)
		if errors.Is(err, application.ErrValidation) {
			sess, err = a.auth.Login(ctx, in.Email, in.Password)
			if err != nil {
				return nil, fmt.Errorf("seed user %s exists with a different password: %w", in.Email, err)
			}
			fmt.Printf("  %s %s already exists\n", color.YellowString("⚠"), in.Email)
		} else if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", in.Email, err)
		} else {
			fmt.Printf("  %s %s (%s)\n", color.GreenString("✓"), in.Email, in.Role)
		}
		users[in.Email] = sess.User
	}
	return users, nil
}

func (c seedCredential) input(clientID string, users map[string]model.User) application.CredentialInput {
	in := application.CredentialInput{
		ClientID:    clientID,
		Name:        c.name,
		Environment: c.environment,
		ServiceType: c.serviceType,
		Username:    c.username,
		Password:    c.password,
		URL:         optionalString(c.url),
		Notes:       optionalString(c.notes),
		Tags:        c.tags,
	}
	for _, email := range c.restrictTo {
		in.AllowedUserIDs = append(in.AllowedUserIDs, users[email].ID)
	}
	return in
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
