package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/portoseguro/backend/internal/domain/entities"
	"github.com/portoseguro/backend/internal/domain/repositories"
	apperrors "github.com/portoseguro/backend/pkg/errors"
	"github.com/portoseguro/backend/pkg/utils"
)

// catalogDocument is the on-disk YAML layout:
//
//	foods: [ARROZ, FEIJÃO]
//	trackers: [GLUTEN, LACTOSE]
//	composites:
//	  - name: PÃO DE QUEIJO
//	    main: [POLVILHO, QUEIJO]
//	    minor: [OVO, LEITE]
//	    trackers: [LACTOSE]
type catalogDocument struct {
	Foods      []string            `yaml:"foods"`
	Trackers   []string            `yaml:"trackers"`
	Composites []compositeDocument `yaml:"composites,omitempty"`
}

type compositeDocument struct {
	Name                  string `yaml:"name"`
	entities.CompositeDef `yaml:",inline"`
}

var defaultFoods = []string{
	"ABOBRINHA", "AMENDOIM", "AMÊNDOAS", "ARROZ", "AVEIA", "AÇÚCAR", "BANANA",
	"BATATA", "BATATA DOCE", "CAFÉ", "CARNE", "CASTANHA", "CENOURA", "CHOCOLATE",
	"CHUCHU", "CREPIOCA", "ESPINAFRE", "FAROFA", "FEIJÃO", "FRANGO", "GOIABA",
	"INHAME", "IOGURTE", "KIWI", "LEITE", "LEITE DE AVEIA", "LEITE DE CASTANHA",
	"LEITE VEGETAL", "LENTILHA", "MACADÂMIA", "MACARRÃO", "MAMÃO", "MILHO",
	"MOLHO", "MORANGO", "OVO", "PEIXE", "PIPOCA", "PIZZA", "POLENTA", "PÃO",
	"PROTEÍNA DE ARROZ", "QUEIJO", "SEMENTE", "SOJA", "TAPIOCA", "TOMATE", "UVA",
}

var defaultTrackers = []string{"GLUTEN", "LACTOSE"}

var defaultComposites = []compositeDocument{
	{
		Name: "PÃO DE QUEIJO",
		CompositeDef: entities.CompositeDef{
			Main:     []string{"POLVILHO", "QUEIJO"},
			Minor:    []string{"OVO", "LEITE"},
			Trackers: []string{"LACTOSE"},
		},
	},
}

// DefaultCatalogItems is the built-in catalog used when no catalog file exists.
func DefaultCatalogItems() []entities.Item {
	return catalogDocument{
		Foods:      defaultFoods,
		Trackers:   defaultTrackers,
		Composites: defaultComposites,
	}.items()
}

// DefaultRegistry builds a registry from DefaultCatalogItems.
func DefaultRegistry() *entities.Registry {
	return entities.MustRegistry(1, DefaultCatalogItems())
}

func (d catalogDocument) items() []entities.Item {
	items := make([]entities.Item, 0, len(d.Foods)+len(d.Trackers)+len(d.Composites))
	for _, name := range d.Foods {
		items = append(items, entities.Item{ID: name, Kind: entities.ItemKindBaseFood})
	}
	for _, name := range d.Trackers {
		items = append(items, entities.Item{ID: name, Kind: entities.ItemKindTracker})
	}
	for _, c := range d.Composites {
		def := c.CompositeDef
		items = append(items, entities.Item{ID: c.Name, Kind: entities.ItemKindComposite, Composite: &def})
	}
	return items
}

func documentFor(items []entities.Item) catalogDocument {
	doc := catalogDocument{Foods: []string{}, Trackers: []string{}}
	for _, item := range items {
		switch item.Kind {
		case entities.ItemKindBaseFood:
			doc.Foods = append(doc.Foods, item.ID)
		case entities.ItemKindTracker:
			doc.Trackers = append(doc.Trackers, item.ID)
		case entities.ItemKindComposite:
			var def entities.CompositeDef
			if item.Composite != nil {
				def = *item.Composite
			}
			doc.Composites = append(doc.Composites, compositeDocument{Name: item.ID, CompositeDef: def})
		}
	}
	sort.Strings(doc.Foods)
	sort.Strings(doc.Trackers)
	sort.Slice(doc.Composites, func(i, j int) bool { return doc.Composites[i].Name < doc.Composites[j].Name })
	return doc
}

// ParseCatalogItems decodes a YAML catalog.
func ParseCatalogItems(data []byte) ([]entities.Item, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewValidationErrorf("invalid catalog yaml: %v", err)
	}
	return doc.items(), nil
}

// ParseCatalog decodes a YAML catalog into a registry.
func ParseCatalog(data []byte, version int64) (*entities.Registry, error) {
	items, err := ParseCatalogItems(data)
	if err != nil {
		return nil, err
	}
	reg, err := entities.NewRegistry(version, items)
	if err != nil {
		return nil, apperrors.NewValidationErrorf("invalid catalog: %v", err)
	}
	return reg, nil
}

// MarshalCatalog encodes items in the YAML catalog layout. Implicit composite
// members are not written back.
func MarshalCatalog(items []entities.Item) ([]byte, error) {
	return yaml.Marshal(documentFor(items))
}

// LoadCatalog reads a YAML catalog file; its version is the file mtime.
func LoadCatalog(path string) (*entities.Registry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("catalog file %s: %v", path, err))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read catalog file", err)
	}
	return ParseCatalog(data, info.ModTime().UnixMilli())
}

// CatalogFile is a CatalogRepository stored as a YAML file. A missing file
// reads as the default catalog and is created on the first write.
type CatalogFile struct {
	path string

	mu          sync.Mutex
	lastVersion int64
}

// NewCatalogFile creates a new YAML backed catalog repository
func NewCatalogFile(path string) repositories.CatalogRepository {
	return &CatalogFile{path: path}
}

// Load reads the catalog file, or the default catalog when it does not exist.
func (c *CatalogFile) Load(ctx context.Context) (*entities.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, version, err := c.read()
	if err != nil {
		return nil, err
	}
	reg, err := entities.NewRegistry(version, items)
	if err != nil {
		return nil, apperrors.NewValidationErrorf("invalid catalog %s: %v", c.path, err)
	}
	return reg, nil
}

// Upsert replaces or adds an item and rewrites the file.
func (c *CatalogFile) Upsert(ctx context.Context, item entities.Item) error {
	id := utils.CanonicalItemID(item.ID)
	if id == "" {
		return apperrors.NewValidationError("item id is required")
	}
	if !item.Kind.IsValid() {
		return apperrors.NewValidationErrorf("invalid item kind %q", item.Kind)
	}
	item.ID = id

	c.mu.Lock()
	defer c.mu.Unlock()

	items, _, err := c.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range items {
		if utils.CanonicalItemID(items[i].ID) == id {
			items[i] = item
			replaced = true
		}
	}
	if !replaced {
		items = append(items, item)
	}
	return c.write(items)
}

// Delete removes an item and rewrites the file.
func (c *CatalogFile) Delete(ctx context.Context, id string) error {
	id = utils.CanonicalItemID(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	items, _, err := c.read()
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, item := range items {
		if utils.CanonicalItemID(item.ID) != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return apperrors.NewNotFoundError(fmt.Sprintf("item %s not found", id))
	}
	return c.write(kept)
}

func (c *CatalogFile) read() ([]entities.Item, int64, error) {
	info, err := os.Stat(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultCatalogItems(), c.bump(1), nil
	}
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to stat catalog file", err)
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to read catalog file", err)
	}
	items, err := ParseCatalogItems(data)
	if err != nil {
		return nil, 0, err
	}
	return items, c.bump(info.ModTime().UnixMilli()), nil
}

// bump keeps versions monotonic even when writes land within the mtime
// resolution.
func (c *CatalogFile) bump(candidate int64) int64 {
	if candidate > c.lastVersion {
		c.lastVersion = candidate
	}
	return c.lastVersion
}

func (c *CatalogFile) write(items []entities.Item) error {
	data, err := MarshalCatalog(items)
	if err != nil {
		return apperrors.NewInternalError("failed to encode catalog", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".catalog-*.yaml")
	if err != nil {
		return apperrors.NewInternalError("failed to write catalog file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write catalog file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to write catalog file", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return apperrors.NewInternalError("failed to replace catalog file", err)
	}

	c.lastVersion++
	return nil
}
