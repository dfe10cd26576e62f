package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
	"github.com/sakif/foodgram/internal/validation"
)

type TagService struct {
	tags     repository.TagRepository
	validate *validator.Validate
	logger   *slog.Logger
}

func NewTagService(tags repository.TagRepository, validate *validator.Validate, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, validate: validate, logger: logger}
}

// NewTag is the input for Create. An empty Slug is derived from Name.
type NewTag struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,hexcolor,len=7"`
	Slug  string `json:"slug" validate:"required,max=50,slug"`
}

func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		logFailure(s.logger, "failed to list tags", err)
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) Get(ctx context.Context, id model.TagID) (*model.Tag, error) {
	return s.tags.GetTagByID(ctx, id)
}

// Create stores a tag. Colors are normalised to upper case so "#e26c2d" and
// "#E26C2D" collide on the unique index.
func (s *TagService) Create(ctx context.Context, in NewTag) (*model.Tag, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Color = strings.ToUpper(strings.TrimSpace(in.Color))
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = makeSlug(in.Name)
	}

	if err := validation.Struct(s.validate, in); err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	if err := s.tags.CreateTag(ctx, tag); err != nil {
		logFailure(s.logger, "failed to create tag", err, slog.String("name", in.Name))
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	s.logger.Info("tag created", slog.Int64("tag_id", int64(tag.ID)), slog.String("slug", tag.Slug))
	return tag, nil
}

// makeSlug transliterates name ("Завтрак" → "zavtrak") and cuts it to
// MaxSlugLength without leaving a trailing hyphen.
func makeSlug(name string) string {
	s := slug.Make(name)
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}
