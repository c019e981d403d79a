package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/smarttransit/carrier-reservations/internal/config"
	"github.com/smarttransit/carrier-reservations/pkg/jwt"
)

// Issues access and refresh tokens for a back-office operator.
// Operators are provisioned out of band; this is the only way to mint their tokens.
func main() {
	var login, roles, id string
	flag.StringVar(&login, "login", "", "operator login (required)")
	flag.StringVar(&roles, "roles", jwt.RoleCashier, "comma separated roles: admin, dispatcher, cashier")
	flag.StringVar(&id, "id", "", "operator UUID (generated when empty)")
	flag.Parse()

	if login == "" {
		log.Fatal("-login is required")
	}

	operatorID := uuid.New()
	if id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			log.Fatalf("invalid -id: %v", err)
		}
		operatorID = parsed
	}

	roleList, err := parseRoles(roles)
	if err != nil {
		log.Fatal(err)
	}

	_ = godotenv.Load()
	jwtCfg := config.LoadJWT()
	if jwtCfg.Secret == "" || jwtCfg.RefreshSecret == "" {
		log.Fatal("JWT_SECRET and JWT_REFRESH_SECRET must be set")
	}

	jwtService := jwt.NewService(jwtCfg.Secret, jwtCfg.RefreshSecret, jwtCfg.AccessTokenExpiry, jwtCfg.RefreshTokenExpiry)

	access, err := jwtService.GenerateAccessToken(operatorID, login, roleList)
	if err != nil {
		log.Fatalf("Failed to generate access token: %v", err)
	}
	refresh, err := jwtService.GenerateRefreshToken(operatorID, login)
	if err != nil {
		log.Fatalf("Failed to generate refresh token: %v", err)
	}

	fmt.Printf("operator_id:   %s\n", operatorID)
	fmt.Printf("roles:         %s\n", strings.Join(roleList, ","))
	fmt.Printf("access_token:  %s\n", access)
	fmt.Printf("refresh_token: %s\n", refresh)
}

func parseRoles(raw string) ([]string, error) {
	known := map[string]bool{jwt.RoleAdmin: true, jwt.RoleDispatcher: true, jwt.RoleCashier: true}

	var out []string
	for _, role := range strings.Split(raw, ",") {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		if !known[role] {
			return nil, fmt.Errorf("unknown role %q", role)
		}
		out = append(out, role)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one role is required")
	}
	return out, nil
}
