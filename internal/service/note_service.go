package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"collab-notes-server/internal/domain"
	"collab-notes-server/internal/repository"

	"github.com/google/uuid"
)

type NoteService struct {
	noteRepo repository.NoteRepository
	userRepo repository.UserRepository
}

func NewNoteService(noteRepo repository.NoteRepository, userRepo repository.UserRepository) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
	}
}

func (s *NoteService) Create(ctx context.Context, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	if req.Title == "" || req.UserID == "" {
		return nil, NewValidationError("title and userId are required")
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	note := &domain.Note{
		ID:        uuid.New().String(),
		Type:      domain.DocTypeNote,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      tags,
		CreatorID: req.UserID,
		EditorIDs: []string{req.UserID},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, note)
}

func (s *NoteService) List(ctx context.Context, query *domain.ListNotesQuery) ([]*domain.NoteResponse, error) {
	notes, err := s.noteRepo.List(ctx, repository.NoteFilter{
		UserID: query.UserID,
		Tag:    query.Tag,
	})
	if err != nil {
		return nil, err
	}

	if query.Search != "" {
		needle := strings.ToLower(query.Search)
		filtered := notes[:0]
		for _, n := range notes {
			if strings.Contains(strings.ToLower(n.Title), needle) ||
				strings.Contains(strings.ToLower(n.Content), needle) {
				filtered = append(filtered, n)
			}
		}
		notes = filtered
	}

	sortNotes(notes, query.Sort)

	return s.toResponses(ctx, notes)
}

func (s *NoteService) GetByID(ctx context.Context, noteID string) (*domain.NoteResponse, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return nil, ErrMalformedID
	}

	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.toResponse(ctx, note)
}

// Update replaces any provided fields and records the acting user as an
// editor. A nil content pointer means "keep"; an empty string is a real value.
func (s *NoteService) Update(ctx context.Context, noteID string, req *domain.UpdateNoteRequest) (*domain.NoteResponse, error) {
	if _, err := uuid.Parse(noteID); err != nil {
		return nil, ErrMalformedID
	}
	if req.UserID == "" {
		return nil, NewValidationError("userId is required")
	}

	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !note.HasEditor(req.UserID) {
		note.EditorIDs = append(note.EditorIDs, req.UserID)
	}

	if req.Title != nil && *req.Title != "" {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	note.UpdatedAt = time.Now()

	if err := s.noteRepo.Update(ctx, note); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.toResponse(ctx, note)
}

// Delete removes a note permanently. Only the original creator may delete.
func (s *NoteService) Delete(ctx context.Context, noteID, userID string) error {
	if _, err := uuid.Parse(noteID); err != nil {
		return ErrMalformedID
	}
	if userID == "" {
		return NewValidationError("userId is required")
	}

	note, err := s.noteRepo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if note.CreatorID != userID {
		return ErrForbidden
	}

	return s.noteRepo.Delete(ctx, noteID)
}

func sortNotes(notes []*domain.Note, order string) {
	switch order {
	case domain.SortNewest:
		sort.SliceStable(notes, func(i, j int) bool {
			return notes[i].CreatedAt.After(notes[j].CreatedAt)
		})
	case domain.SortOldest:
		sort.SliceStable(notes, func(i, j int) bool {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		})
	default:
		sort.SliceStable(notes, func(i, j int) bool {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		})
	}
}

func (s *NoteService) toResponse(ctx context.Context, note *domain.Note) (*domain.NoteResponse, error) {
	responses, err := s.toResponses(ctx, []*domain.Note{note})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// toResponses resolves every referenced user in one lookup and denormalizes
// creator and editors to {id, username} pairs. Unknown ids keep an empty
// username rather than failing the request.
func (s *NoteService) toResponses(ctx context.Context, notes []*domain.Note) ([]*domain.NoteResponse, error) {
	idSet := make(map[string]struct{})
	for _, n := range notes {
		idSet[n.CreatorID] = struct{}{}
		for _, id := range n.EditorIDs {
			idSet[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user names: %w", err)
	}

	ref := func(id string) domain.UserRef {
		if u, ok := users[id]; ok {
			return domain.UserRef{ID: id, Username: u.Username}
		}
		return domain.UserRef{ID: id}
	}

	responses := make([]*domain.NoteResponse, 0, len(notes))
	for _, n := range notes {
		editors := make([]domain.UserRef, 0, len(n.EditorIDs))
		for _, id := range n.EditorIDs {
			editors = append(editors, ref(id))
		}

		tags := n.Tags
		if tags == nil {
			tags = []string{}
		}

		responses = append(responses, &domain.NoteResponse{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Tags:      tags,
			Creator:   ref(n.CreatorID),
			Editors:   editors,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		})
	}

	return responses, nil
}
