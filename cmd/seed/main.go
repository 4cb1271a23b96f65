package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"elearning/internal/auth"
	"elearning/internal/config"
	"elearning/internal/db"
	"elearning/internal/logging"
	"elearning/internal/model"
	"elearning/internal/repository"
)

// Catalog is the seed file layout.
type Catalog struct {
	Courses []SeedCourse `json:"courses"`
}

// SeedCourse is a course and its classes in order.
type SeedCourse struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Level       model.Level `json:"level"`
	NameURL     string      `json:"nameUrl"`
	ImageURL    string      `json:"imageUrl"`
	Classes     []SeedClass `json:"classes"`
}

// SeedClass is one class of a seeded course.
type SeedClass struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Role        model.Role `json:"role"`
	VideoURL    string     `json:"videoUrl"`
}

// AdminAccount describes the administrator to create or promote.
type AdminAccount struct {
	Email    string
	Username string
	Password string
}

type seedStats struct {
	coursesCreated int
	coursesUpdated int
	classesCreated int
	classesUpdated int
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")
	adminEmail := flag.String("admin-email", "", "email of the administrator to create or promote")
	adminUsername := flag.String("admin-username", "admin", "username for a new administrator")
	adminPassword := flag.String("admin-password", "", "password for a new administrator")
	catalogSource := flag.String("catalog", "", "catalogue JSON file path or http(s) URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	if *adminEmail == "" && *catalogSource == "" {
		logger.Fatal().Msg("nothing to seed: pass -admin-email and/or -catalog")
	}

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	ctx := logger.WithContext(context.Background())

	if *adminEmail != "" {
		created, err := ensureAdmin(ctx, repository.NewUserRepository(gormDB), auth.NewHasher(), AdminAccount{
			Email:    *adminEmail,
			Username: *adminUsername,
			Password: *adminPassword,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed administrator")
		}
		logger.Info().Str("email", *adminEmail).Bool("created", created).Msg("administrator ready")
	}

	if *catalogSource != "" {
		catalog, err := loadCatalog(*catalogSource)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load catalogue")
		}
		stats, err := seedCatalog(ctx, repository.NewCourseRepository(gormDB), repository.NewClassRepository(gormDB), catalog)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to seed catalogue")
		}
		logger.Info().
			Int("courses_created", stats.coursesCreated).
			Int("courses_updated", stats.coursesUpdated).
			Int("classes_created", stats.classesCreated).
			Int("classes_updated", stats.classesUpdated).
			Msg("seed completed")
	}
}

// ensureAdmin promotes an existing account or creates a verified admin.
func ensureAdmin(ctx context.Context, users repository.UserRepository, hasher *auth.Hasher, admin AdminAccount) (bool, error) {
	existing, err := users.FindByEmail(ctx, admin.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("error checking user %s: %w", admin.Email, err)
	}

	if existing != nil {
		err := users.Update(ctx, existing.ID, map[string]interface{}{
			"role":     model.RoleAdmin,
			"verified": true,
		})
		if err != nil {
			return false, fmt.Errorf("error promoting user %s: %w", admin.Email, err)
		}
		return false, nil
	}

	if len(admin.Password) < 6 {
		return false, errors.New("a new administrator needs -admin-password of at least 6 characters")
	}
	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Email:        admin.Email,
		Username:     admin.Username,
		PasswordHash: hash,
		Name:         admin.Username,
		Role:         model.RoleAdmin,
		Verified:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("error creating user %s: %w", admin.Email, err)
	}
	return true, nil
}

// loadCatalog reads the catalogue from a file or an http(s) URL.
func loadCatalog(source string) (*Catalog, error) {
	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = fetchCatalog(source)
	} else {
		body, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, err
	}

	var catalog Catalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return &catalog, nil
}

// fetchCatalog downloads the catalogue JSON.
func fetchCatalog(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalogue source returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// seedCatalog upserts courses by nameUrl. Classes are matched by position:
// the n-th seeded class updates class number n or is appended.
func seedCatalog(ctx context.Context, courses repository.CourseRepository, classes repository.ClassRepository, catalog *Catalog) (seedStats, error) {
	var stats seedStats
	log := zerolog.Ctx(ctx)

	for _, item := range catalog.Courses {
		if item.NameURL == "" {
			log.Warn().Str("title", item.Title).Msg("skipping course without nameUrl")
			continue
		}

		course, err := courses.FindByNameURL(ctx, item.NameURL)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return stats, fmt.Errorf("error checking course %s: %w", item.NameURL, err)
		}

		if course != nil {
			course.Title = item.Title
			course.Description = item.Description
			course.Level = item.Level
			course.ImageURL = item.ImageURL
			if err := courses.Update(ctx, course); err != nil {
				return stats, fmt.Errorf("error updating course %s: %w", item.NameURL, err)
			}
			stats.coursesUpdated++
		} else {
			course = &model.Course{
				Title:       item.Title,
				Description: item.Description,
				Level:       item.Level,
				NameURL:     item.NameURL,
				ImageURL:    item.ImageURL,
			}
			if err := courses.Create(ctx, course); err != nil {
				return stats, fmt.Errorf("error creating course %s: %w", item.NameURL, err)
			}
			stats.coursesCreated++
		}

		existing, err := classes.ListByCourse(ctx, course.ID)
		if err != nil {
			return stats, fmt.Errorf("error listing classes of %s: %w", item.NameURL, err)
		}

		for i, seeded := range item.Classes {
			if i < len(existing) {
				class := existing[i]
				class.Title = seeded.Title
				class.Description = seeded.Description
				class.Role = seeded.Role
				class.VideoURL = seeded.VideoURL
				if err := classes.Update(ctx, &class); err != nil {
					return stats, fmt.Errorf("error updating class %d of %s: %w", class.ClassNumber, item.NameURL, err)
				}
				stats.classesUpdated++
				continue
			}

			class := &model.Class{
				Title:       seeded.Title,
				Description: seeded.Description,
				Role:        seeded.Role,
				RouteID:     course.ID,
				VideoURL:    seeded.VideoURL,
			}
			if err := classes.Create(ctx, class); err != nil {
				return stats, fmt.Errorf("error creating class %q of %s: %w", seeded.Title, item.NameURL, err)
			}
			stats.classesCreated++
		}
	}

	return stats, nil
}
