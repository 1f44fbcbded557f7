package element

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/damoang/angple-elements/internal/common"
	"github.com/damoang/angple-elements/internal/domain"
	"github.com/damoang/angple-elements/internal/forms"
	"github.com/damoang/angple-elements/internal/plugin"
	"github.com/damoang/angple-elements/internal/repository"
	"github.com/damoang/angple-elements/internal/schema"
	"github.com/damoang/angple-elements/internal/versioned"
	"github.com/damoang/angple-elements/pkg/i18n"
	"github.com/damoang/angple-elements/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ElementStore draft/live persistence of elements
type ElementStore = versioned.Store[domain.ElementObject, *domain.ElementObject]

// ImageStore draft/live persistence of element images
type ImageStore = versioned.Store[domain.ElementImage, *domain.ElementImage]

// NewElementStore creates the element store over db
func NewElementStore(db *gorm.DB) *ElementStore {
	return versioned.NewStore[domain.ElementObject](db, domain.ElementObject{}.TableName())
}

// NewImageStore creates the image store over db
func NewImageStore(db *gorm.DB) *ImageStore {
	return versioned.NewStore[domain.ElementImage](db, domain.ElementImage{}.TableName())
}

// Input is the editable part of an element
type Input struct {
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	ShowTitle     bool    `json:"show_title"`
	Content       string  `json:"content"`
	Sort          int     `json:"sort"`
	ImageID       *uint64 `json:"image_id"`
	ElementLinkID *uint64 `json:"element_link_id"`
	ParentPageID  *uint64 `json:"parent_page_id"`
}

func (in Input) validate() error {
	if utf8.RuneCountInString(in.Title) > 255 {
		return fmt.Errorf("%w: title is longer than 255 characters", common.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.Name) > 255 {
		return fmt.Errorf("%w: name is longer than 255 characters", common.ErrInvalidInput)
	}
	return nil
}

func (in Input) apply(e *domain.ElementObject) {
	e.Name = in.Name
	e.Title = in.Title
	e.ShowTitle = in.ShowTitle
	e.Content = in.Content
	e.Sort = in.Sort
	e.ImageID = in.ImageID
	e.ElementLinkID = in.ElementLinkID
	e.ParentPageID = in.ParentPageID
}

// ListParams filters a list call
type ListParams struct {
	// Search matches any searchable field
	Search string
	// Filters maps a searchable field name to a term
	Filters      map[string]string
	ParentPageID *uint64
	Page         int
	PerPage      int
}

// Summary is one list-view row keyed by summary field labels
type Summary map[string]interface{}

// View is an element with its relations resolved for rendering
type View struct {
	*domain.ElementObject
	DisplayTitle string               `json:"display_title"`
	Image        *domain.ElementImage `json:"image,omitempty"`
	ImageURL     string               `json:"image_url,omitempty"`
	Link         *domain.ElementLink  `json:"link,omitempty"`
	LinkHref     string               `json:"link_href,omitempty"`
	Published    bool                 `json:"published"`
}

// Service element lifecycle: draft writes, publish, archive and purge
type Service struct {
	elements *ElementStore
	images   *ImageStore
	links    repository.LinkRepository
	schema   *schema.Schema
	forms    *forms.Builder
	hooks    *plugin.HookManager
	logger   zerolog.Logger

	files          storage.Storage
	blockedDomains []string
}

// NewService creates a new element Service. hooks may be nil.
func NewService(elements *ElementStore, images *ImageStore, links repository.LinkRepository, builder *forms.Builder, hooks *plugin.HookManager, logger zerolog.Logger) *Service {
	return &Service{
		elements: elements,
		images:   images,
		links:    links,
		schema:   Schema(),
		forms:    builder,
		hooks:    hooks,
		logger:   logger,
	}
}

// WithBlockedLinkDomains rejects links and content pointing at these domains
func (s *Service) WithBlockedLinkDomains(domains []string) *Service {
	s.blockedDomains = domains
	return s
}

// WithFiles sets the backend that holds uploaded image files
func (s *Service) WithFiles(files storage.Storage) *Service {
	s.files = files
	return s
}

// Migrate creates the element and image tables for both stages
func (s *Service) Migrate() error {
	if err := s.elements.Migrate(); err != nil {
		return err
	}
	return s.images.Migrate()
}

// Get loads an element from a stage
func (s *Service) Get(ctx context.Context, stage versioned.Stage, id uint64) (*domain.ElementObject, error) {
	e, err := s.elements.Get(ctx, stage, id)
	if errors.Is(err, versioned.ErrNotFound) {
		return nil, common.ErrElementNotFound
	}
	return e, err
}

// View loads an element with its image and link from the same stage
func (s *Service) View(ctx context.Context, stage versioned.Stage, id uint64, pageURL func(id uint64) string) (*View, error) {
	e, err := s.Get(ctx, stage, id)
	if err != nil {
		return nil, err
	}
	v := &View{ElementObject: e, DisplayTitle: e.DisplayTitle()}

	if e.ImageID != nil {
		img, err := s.images.Get(ctx, stage, *e.ImageID)
		switch {
		case err == nil:
			v.Image = img
			v.ImageURL = img.URL()
		case !errors.Is(err, versioned.ErrNotFound):
			return nil, err
		}
	}
	if e.ElementLinkID != nil {
		link, err := s.links.FindByID(ctx, *e.ElementLinkID)
		switch {
		case err == nil:
			v.Link = link
			v.LinkHref = link.Href(pageURL)
		case !errors.Is(err, common.ErrNotFound):
			return nil, err
		}
	}

	v.Published, err = s.elements.IsPublished(ctx, id)
	return v, err
}

// List returns one page of summary rows ordered by the default sort
func (s *Service) List(ctx context.Context, stage versioned.Stage, p ListParams) ([]Summary, int64, error) {
	q := versioned.ListQuery{
		Order:   columns[s.schema.DefaultSort.Field] + orderDir(s.schema.DefaultSort),
		Page:    p.Page,
		PerPage: p.PerPage,
	}
	scopes, err := s.searchScopes(p)
	if err != nil {
		return nil, 0, err
	}
	q.Scopes = scopes

	rows, total, err := s.elements.List(ctx, stage, q)
	if err != nil {
		return nil, 0, err
	}
	images, err := s.imagesFor(ctx, stage, rows)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Summary, 0, len(rows))
	for _, e := range rows {
		out = append(out, s.summarize(e, images))
	}
	return out, total, nil
}

func (s *Service) searchScopes(p ListParams) ([]func(*gorm.DB) *gorm.DB, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if p.ParentPageID != nil {
		pageID := *p.ParentPageID
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where("parent_page_id = ?", pageID)
		})
	}
	for field, term := range p.Filters {
		if term == "" {
			continue
		}
		col, ok := s.searchColumn(field)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not searchable", common.ErrInvalidInput, field)
		}
		like := containsPattern(term)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(col+" LIKE ? ESCAPE '!'", like)
		})
	}
	if p.Search != "" {
		like := containsPattern(p.Search)
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			cond := db.Session(&gorm.Session{NewDB: true})
			for i, sf := range s.schema.SearchableFields {
				if i == 0 {
					cond = cond.Where(columns[sf.Field]+" LIKE ? ESCAPE '!'", like)
					continue
				}
				cond = cond.Or(columns[sf.Field]+" LIKE ? ESCAPE '!'", like)
			}
			return db.Where(cond)
		})
	}
	return scopes, nil
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in
// MySQL or SQLite string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern matches term literally anywhere in the column
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// searchColumn accepts a searchable field name or its title ("Headline")
func (s *Service) searchColumn(field string) (string, bool) {
	for _, sf := range s.schema.SearchableFields {
		if strings.EqualFold(sf.Field, field) || strings.EqualFold(sf.Title, field) {
			return columns[sf.Field], true
		}
	}
	return "", false
}

func (s *Service) imagesFor(ctx context.Context, stage versioned.Stage, rows []*domain.ElementObject) (map[uint64]*domain.ElementImage, error) {
	var ids []uint64
	for _, e := range rows {
		if e.ImageID != nil {
			ids = append(ids, *e.ImageID)
		}
	}
	out := make(map[uint64]*domain.ElementImage, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	images, _, err := s.images.List(ctx, stage, versioned.ListQuery{
		Scopes: []func(*gorm.DB) *gorm.DB{func(db *gorm.DB) *gorm.DB {
			return db.Where("id IN ?", ids)
		}},
	})
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		out[img.ID] = img
	}
	return out, nil
}

func (s *Service) summarize(e *domain.ElementObject, images map[uint64]*domain.ElementImage) Summary {
	row := Summary{"ID": e.ID}
	for _, sf := range s.schema.SummaryFields {
		switch sf.Path {
		case "Image.CMSThumbnail":
			var thumb string
			if e.ImageID != nil {
				if img, ok := images[*e.ImageID]; ok {
					thumb = img.CMSThumbnail()
				}
			}
			row[sf.Label] = thumb
		case "Name":
			row[sf.Label] = e.Name
		case "Title":
			row[sf.Label] = e.Title
		}
	}
	return row
}

// Create writes a new draft element
func (s *Service) Create(ctx context.Context, in Input, author *domain.Member) (*domain.ElementObject, error) {
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}
	e := &domain.ElementObject{}
	in.apply(e)
	if err := s.elements.Write(ctx, e, memberID(author)); err != nil {
		return nil, err
	}
	s.fire(plugin.HookElementAfterWrite, e, author)
	return e, nil
}

// Update overwrites the draft of an existing element
func (s *Service) Update(ctx context.Context, id uint64, in Input, author *domain.Member) (*domain.ElementObject, error) {
	e, err := s.Get(ctx, versioned.Draft, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, in); err != nil {
		return nil, err
	}
	in.apply(e)
	if err := s.elements.Write(ctx, e, memberID(author)); err != nil {
		return nil, err
	}
	s.fire(plugin.HookElementAfterWrite, e, author)
	return e, nil
}

func (s *Service) checkInput(ctx context.Context, in Input) error {
	if err := in.validate(); err != nil {
		return err
	}
	if common.ContainsBlockedLink(in.Content, s.blockedDomains) {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, common.ErrBlockedLinkDomain)
	}
	if in.ImageID != nil {
		if _, err := s.images.Get(ctx, versioned.Draft, *in.ImageID); err != nil {
			if errors.Is(err, versioned.ErrNotFound) {
				return fmt.Errorf("%w: image #%d does not exist", common.ErrInvalidInput, *in.ImageID)
			}
			return err
		}
	}
	if in.ElementLinkID != nil {
		if _, err := s.links.FindByID(ctx, *in.ElementLinkID); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("%w: link #%d does not exist", common.ErrInvalidInput, *in.ElementLinkID)
			}
			return err
		}
	}
	return nil
}

// Publish copies the draft to live, publishing the owned image first
func (s *Service) Publish(ctx context.Context, id uint64, author *domain.Member) (*domain.ElementObject, error) {
	e, err := s.Get(ctx, versioned.Draft, id)
	if err != nil {
		return nil, err
	}
	s.fire(plugin.HookElementBeforePublish, e, author)

	if e.ImageID != nil && s.schema.IsOwned("Image") {
		if _, err := s.images.Publish(ctx, *e.ImageID, memberID(author)); err != nil {
			if !errors.Is(err, versioned.ErrNotFound) {
				return nil, fmt.Errorf("publish owned image: %w", err)
			}
			s.logger.Warn().Uint64("element_id", id).Uint64("image_id", *e.ImageID).Msg("owned image missing on draft, skipped")
		}
	}

	live, err := s.elements.Publish(ctx, id, memberID(author))
	if err != nil {
		return nil, err
	}
	s.fire(plugin.HookElementAfterPublish, live, author)
	return live, nil
}

// Unpublish removes the live copy of the element and its owned image
func (s *Service) Unpublish(ctx context.Context, id uint64) error {
	e, err := s.Get(ctx, versioned.Live, id)
	if err != nil {
		return err
	}
	if err := s.elements.Unpublish(ctx, id); err != nil {
		return err
	}
	if e.ImageID != nil {
		if err := s.images.Unpublish(ctx, *e.ImageID); err != nil && !errors.Is(err, versioned.ErrNotFound) {
			return fmt.Errorf("unpublish owned image: %w", err)
		}
	}
	return nil
}

// RevertToLive discards draft changes
func (s *Service) RevertToLive(ctx context.Context, id uint64, author *domain.Member) (*domain.ElementObject, error) {
	e, err := s.elements.RevertToLive(ctx, id, memberID(author))
	if errors.Is(err, versioned.ErrNotFound) {
		return nil, common.ErrElementNotFound
	}
	return e, err
}

// Archive removes the element from both stages, keeping history. The owned image follows.
func (s *Service) Archive(ctx context.Context, id uint64, author *domain.Member) error {
	e, err := s.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.elements.Archive(ctx, id, memberID(author)); err != nil {
		return err
	}
	if e.ImageID != nil && s.schema.IsOwned("Image") {
		if err := s.images.Archive(ctx, *e.ImageID, memberID(author)); err != nil && !errors.Is(err, versioned.ErrNotFound) {
			return fmt.Errorf("archive owned image: %w", err)
		}
	}
	s.fire(plugin.HookElementAfterArchive, e, author)
	return nil
}

// Purge deletes the element, its history and its owned image permanently
func (s *Service) Purge(ctx context.Context, id uint64) error {
	e, err := s.Find(ctx, id)
	if errors.Is(err, common.ErrElementNotFound) {
		e, err = s.elements.Latest(ctx, id)
		if errors.Is(err, versioned.ErrNotFound) {
			return common.ErrElementNotFound
		}
	}
	if err != nil {
		return err
	}
	if err := s.elements.Purge(ctx, id); err != nil {
		return err
	}
	if e.ImageID == nil || !s.schema.IsOwned("Image") {
		return nil
	}

	img, err := s.images.Latest(ctx, *e.ImageID)
	if err != nil && !errors.Is(err, versioned.ErrNotFound) {
		return err
	}
	if err := s.images.Purge(ctx, *e.ImageID); err != nil {
		return err
	}
	if img != nil && s.files != nil {
		if err := s.files.Delete(ctx, storage.Key(img.Folder, img.Filename)); err != nil {
			s.logger.Warn().Err(err).Uint64("image_id", img.ID).Msg("failed to delete image file")
		}
	}
	return nil
}

// Find returns the draft, or the live copy of a draft-less element
func (s *Service) Find(ctx context.Context, id uint64) (*domain.ElementObject, error) {
	e, err := s.Get(ctx, versioned.Draft, id)
	if errors.Is(err, common.ErrElementNotFound) {
		return s.Get(ctx, versioned.Live, id)
	}
	return e, err
}

// Versions returns the element's history, newest first
func (s *Service) Versions(ctx context.Context, id uint64) ([]*versioned.RecordVersion, error) {
	versions, err := s.elements.Versions(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, common.ErrElementNotFound
	}
	return versions, nil
}

// EditForm builds the customized CMS edit form
func (s *Service) EditForm(locale i18n.Locale) (*forms.FieldList, error) {
	return s.forms.Build(domain.ElementObjectClass, locale)
}

// CreateImage stores image metadata on draft. Filename should come from ImageFilename.
func (s *Service) CreateImage(ctx context.Context, img *domain.ElementImage, author *domain.Member) error {
	if img.Filename == "" {
		return fmt.Errorf("%w: image filename is required", common.ErrInvalidInput)
	}
	return s.images.Write(ctx, img, memberID(author))
}

// UploadImage stores the file through the storage backend, then writes the image draft
func (s *Service) UploadImage(ctx context.Context, img *domain.ElementImage, body io.Reader, size int64, author *domain.Member) error {
	if s.files == nil {
		return fmt.Errorf("image storage is not configured")
	}
	if img.Filename == "" {
		return fmt.Errorf("%w: image filename is required", common.ErrInvalidInput)
	}

	key := storage.Key(img.Folder, img.Filename)
	res, err := s.files.Upload(ctx, key, body, img.MimeType, size)
	if err != nil {
		return err
	}
	img.StorageURL = res.PublicURL()

	if err := s.CreateImage(ctx, img, author); err != nil {
		if derr := s.files.Delete(ctx, key); derr != nil {
			s.logger.Warn().Err(derr).Str("key", key).Msg("failed to clean up uploaded file")
		}
		return err
	}
	return nil
}

// ImageFilename returns a collision-free stored name keeping the extension
func ImageFilename(original string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

// CreateLink validates and stores a call-to-action link
func (s *Service) CreateLink(ctx context.Context, link *domain.ElementLink) error {
	if err := link.Validate(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	if link.Type == "" {
		link.Type = domain.LinkTypeURL
	}
	if link.Type == domain.LinkTypeURL {
		if err := common.ValidateLinkURL(link.URL, s.blockedDomains); err != nil {
			return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
		}
	}
	return s.links.Create(ctx, link)
}

func (s *Service) fire(event string, e *domain.ElementObject, author *domain.Member) {
	if s.hooks == nil {
		return
	}
	s.hooks.Do(event, map[string]interface{}{
		"element": e,
		"member":  author,
	})
}

func memberID(m *domain.Member) *uint64 {
	if m == nil {
		return nil
	}
	id := m.ID
	return &id
}

func orderDir(s schema.Sort) string {
	if s.Desc {
		return " DESC"
	}
	return " ASC"
}
