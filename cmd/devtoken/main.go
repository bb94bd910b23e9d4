// Command devtoken issues an access token for local testing and registers it in Redis the way
// the identity service does, so the portal's revocation check accepts it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"onboarding-portal/config"
	"onboarding-portal/internal/delivery/http/middleware"
	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/infrastructure/cache"
	"onboarding-portal/pkg/jwt"

	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env", ".env", "env file to read configuration from")
	userID := flag.String("user", "", "user id to issue the token for (required)")
	email := flag.String("email", "", "email claim")
	role := flag.String("role", entity.RoleClient, "role claim: client or admin")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}
	if !entity.IsKnownRole(*role) {
		logrus.Fatalf("Unknown role %q", *role)
	}

	cfg, err := config.LoadConfigFromFile(*envFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	jwtService := jwt.NewJWTService(cfg.JWT)
	token, tokenID, err := jwtService.GenerateAccessToken(*userID, *email, *role)
	if err != nil {
		logrus.Fatalf("Failed to sign token: %v", err)
	}

	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logrus.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		key := middleware.AccessTokenKey(*userID, tokenID)
		if err := redisClient.Set(context.Background(), key, *userID, jwtService.GetAccessExpiry()).Err(); err != nil {
			logrus.Fatalf("Failed to register token: %v", err)
		}
	}

	fmt.Println(token)
}
