// Package seed populates an empty datastore with the default users and menu.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	authDto "github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	menuDto "github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

const seedActor = "seed"

type File struct {
	Users []authDto.CreateUserInput `yaml:"users"`
	Menu  []MenuEntry               `yaml:"menu"`
}

type MenuEntry struct {
	Name         string          `yaml:"name"`
	Category     string          `yaml:"category"`
	Price        decimal.Decimal `yaml:"price"`
	Stock        int             `yaml:"stock"`
	RequiresSide bool            `yaml:"requires_side"`
	SideOptions  []SideEntry     `yaml:"side_options"`
}

// SideEntry links a side option to the stock of an earlier entry by name.
type SideEntry struct {
	Name      string          `yaml:"name"`
	Surcharge decimal.Decimal `yaml:"surcharge"`
	Consumes  string          `yaml:"consumes"`
}

// Counter reports how many rows a table holds.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

type Seeder struct {
	menu   menu.UseCase
	items  Counter
	auth   auth.UseCase
	users  Counter
	logger logger.ZapLogger
}

func NewSeeder(menuUC menu.UseCase, items Counter, authUC auth.UseCase, users Counter, log logger.ZapLogger) *Seeder {
	return &Seeder{
		menu:   menuUC,
		items:  items,
		auth:   authUC,
		users:  users,
		logger: log.Named("seed"),
	}
}

// Load parses path, or the embedded default when path is empty.
func Load(path string) (*File, error) {
	data := defaultSeed
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read seed file: %w", err)
		}
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Run seeds users and menu independently, each only when its table is empty.
func (s *Seeder) Run(ctx context.Context, f *File) error {
	users, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if users == 0 {
		for i := range f.Users {
			if _, err := s.auth.CreateUser(ctx, &f.Users[i]); err != nil {
				return fmt.Errorf("seed user %s: %w", f.Users[i].Username, err)
			}
		}
		s.logger.Info("Seeded users", zap.Int("count", len(f.Users)))
	}

	items, err := s.items.Count(ctx)
	if err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if items > 0 {
		return nil
	}

	ids := make(map[string]int64, len(f.Menu))
	for _, entry := range f.Menu {
		input := &menuDto.CreateMenuItemInput{
			Name:         entry.Name,
			Category:     entry.Category,
			Price:        entry.Price,
			Stock:        entry.Stock,
			RequiresSide: entry.RequiresSide,
			Actor:        seedActor,
		}
		for _, side := range entry.SideOptions {
			opt := menuDto.SideOptionInput{Name: side.Name, Surcharge: side.Surcharge}
			if side.Consumes != "" {
				id, ok := ids[side.Consumes]
				if !ok {
					return fmt.Errorf("seed item %s: side option %s consumes unknown item %q", entry.Name, side.Name, side.Consumes)
				}
				opt.ConsumesItemID = &id
			}
			input.SideOptions = append(input.SideOptions, opt)
		}

		item, err := s.menu.AddMenuItem(ctx, input)
		if err != nil {
			return fmt.Errorf("seed item %s: %w", entry.Name, err)
		}
		ids[item.Name] = item.ID
	}
	s.logger.Info("Seeded menu", zap.Int("count", len(f.Menu)))
	return nil
}
