package services

import (
	"errors"
	"path"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"spotmap/models"
	"spotmap/storage"
)

// legacyImagePrefixes are serving paths from before the upload directory
// migration. Stored references carrying one of these are rewritten to the
// canonical /uploads/images/ path in every response.
var legacyImagePrefixes = []string{"/uploads/markers/", "/api/marker-image/"}

// MarkerService enforces ownership and consistency for all marker mutations
// and keeps image files on disk in step with the database rows referencing
// them. File cleanup is best-effort: a failed file delete is logged and never
// rolls back the database change that triggered it.
type MarkerService struct {
	db     *gorm.DB
	images storage.ImageStore
	log    zerolog.Logger
}

func NewMarkerService(db *gorm.DB, images storage.ImageStore, log zerolog.Logger) *MarkerService {
	return &MarkerService{
		db:     db,
		images: images,
		log:    log.With().Str("component", "markers").Logger(),
	}
}

func (s *MarkerService) preloaded() *gorm.DB {
	return s.db.Preload("User").Preload("Images.User").Preload("Ratings.User")
}

func (s *MarkerService) loadMarker(id int) (*models.Marker, error) {
	var m models.Marker
	if err := s.preloaded().First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMarkers returns every marker. Public, no authorization.
func (s *MarkerService) ListMarkers() ([]models.MarkerView, error) {
	var markers []models.Marker
	if err := s.preloaded().Find(&markers).Error; err != nil {
		return nil, err
	}
	views := make([]models.MarkerView, 0, len(markers))
	for i := range markers {
		views = append(views, *s.toView(&markers[i]))
	}
	return views, nil
}

// ListMarkersByUser returns the markers owned by userID.
func (s *MarkerService) ListMarkersByUser(userID string) ([]models.MarkerView, error) {
	var markers []models.Marker
	if err := s.preloaded().Where("user_id = ?", userID).Find(&markers).Error; err != nil {
		return nil, err
	}
	views := make([]models.MarkerView, 0, len(markers))
	for i := range markers {
		views = append(views, *s.toView(&markers[i]))
	}
	return views, nil
}

func (s *MarkerService) GetMarker(id int) (*models.MarkerView, error) {
	m, err := s.loadMarker(id)
	if err != nil {
		return nil, err
	}
	return s.toView(m), nil
}

// CreateMarker inserts a new marker owned by userID. The owner always comes
// from the authenticated caller, never from the request body.
func (s *MarkerService) CreateMarker(req models.MarkerCreateRequest, userID string) (*models.MarkerView, error) {
	m := models.Marker{
		Name:     req.Name,
		Position: req.Position,
		Type:     req.Type,
		UserID:   &userID,
	}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, err
	}
	s.log.Info().Int("marker_id", m.ID).Str("user_id", userID).Msg("marker created")
	return s.GetMarker(m.ID)
}

// UpdateMarker applies the non-nil fields of req to the marker. Owner only.
func (s *MarkerService) UpdateMarker(id int, req models.MarkerUpdateRequest, userID string) (*models.MarkerView, error) {
	m, err := s.loadMarker(id)
	if err != nil {
		return nil, err
	}
	if !m.OwnedBy(userID) {
		s.log.Warn().Int("marker_id", id).Str("user_id", userID).Msg("unauthorized marker update attempt")
		return nil, ErrForbidden
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Position != nil {
		updates["position_lat"] = req.Position.Lat
		updates["position_lng"] = req.Position.Lng
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) > 0 {
		if err := s.db.Model(m).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	s.log.Info().Int("marker_id", id).Msg("marker updated")
	return s.GetMarker(id)
}

// DeleteMarker removes the marker, its child rows and its image files.
// Returns false both when the marker does not exist and when the caller is
// not the owner; callers cannot tell the two apart by design.
func (s *MarkerService) DeleteMarker(id int, userID string) (bool, error) {
	m, err := s.loadMarker(id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !m.OwnedBy(userID) {
		s.log.Warn().Int("marker_id", id).Str("user_id", userID).Msg("unauthorized marker delete attempt")
		return false, nil
	}

	if m.ImageUrl != nil {
		s.images.Delete(*m.ImageUrl)
	}
	for _, img := range m.Images {
		s.images.Delete(img.ImageUrl)
	}

	if err := s.db.Select(clause.Associations).Delete(m).Error; err != nil {
		return false, err
	}
	s.log.Info().Int("marker_id", id).Msg("marker deleted")
	return true, nil
}

// RateMarker upserts the caller's rating of the marker and recomputes the
// stored average. Any authenticated user may rate; a repeat rating from the
// same user overwrites the previous value.
func (s *MarkerService) RateMarker(id, value int, userID string) (*models.MarkerView, error) {
	m, err := s.loadMarker(id)
	if err != nil {
		return nil, err
	}

	var existing *models.MarkerRating
	for i := range m.Ratings {
		if m.Ratings[i].UserID == userID {
			existing = &m.Ratings[i]
			break
		}
	}
	if existing != nil {
		existing.Value = value
		if err := s.db.Model(existing).Update("value", value).Error; err != nil {
			return nil, err
		}
	} else {
		rating := models.MarkerRating{MarkerID: m.ID, UserID: userID, Value: value}
		if err := s.db.Create(&rating).Error; err != nil {
			return nil, err
		}
		m.Ratings = append(m.Ratings, rating)
	}

	// The stored scalar is kept for legacy readers; views recompute the
	// average from the rating rows.
	if err := s.db.Model(m).Update("rating", averageRating(m.Ratings)).Error; err != nil {
		return nil, err
	}

	s.log.Info().Int("marker_id", id).Int("value", value).Str("user_id", userID).Msg("marker rated")
	return s.GetMarker(id)
}

// UploadImage stores the uploaded bytes and attaches them to the marker.
// A main image may only be set by the owner and replaces (and removes) the
// previous one; a secondary image may be added by any authenticated user.
func (s *MarkerService) UploadImage(id int, data []byte, filename string, isMain bool, userID string) (*models.MarkerView, error) {
	m, err := s.loadMarker(id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoContent
	}
	if isMain && !m.OwnedBy(userID) {
		s.log.Warn().Int("marker_id", id).Str("user_id", userID).Msg("unauthorized main image upload attempt")
		return nil, ErrForbidden
	}

	url, err := s.images.Save(data, filename)
	if err != nil {
		return nil, err
	}

	if isMain {
		if m.ImageUrl != nil {
			s.images.Delete(*m.ImageUrl)
		}
		if err := s.db.Model(m).Update("image_url", url).Error; err != nil {
			s.images.Delete(url)
			return nil, err
		}
	} else {
		img := models.MarkerImage{MarkerID: m.ID, ImageUrl: url, UserID: &userID}
		if err := s.db.Create(&img).Error; err != nil {
			s.images.Delete(url)
			return nil, err
		}
	}

	s.log.Info().Int("marker_id", id).Bool("main", isMain).Str("url", url).Msg("image uploaded")
	return s.GetMarker(id)
}

// DeleteImage removes the image referenced by imageURL from the marker.
// The main image is owner-only; a secondary image may be removed by its
// contributor or by the marker owner. A reference matching neither is
// reported as not found.
func (s *MarkerService) DeleteImage(id int, imageURL, userID string) (*models.MarkerView, error) {
	m, err := s.loadMarker(id)
	if err != nil {
		return nil, err
	}

	if m.ImageUrl != nil && *m.ImageUrl == imageURL {
		if !m.OwnedBy(userID) {
			s.log.Warn().Int("marker_id", id).Str("user_id", userID).Msg("unauthorized main image delete attempt")
			return nil, ErrForbidden
		}
		if err := s.db.Model(m).Update("image_url", nil).Error; err != nil {
			return nil, err
		}
		s.images.Delete(imageURL)
	} else {
		var target *models.MarkerImage
		for i := range m.Images {
			if m.Images[i].ImageUrl == imageURL {
				target = &m.Images[i]
				break
			}
		}
		if target == nil {
			s.log.Warn().Int("marker_id", id).Str("url", imageURL).Msg("image url not found on marker")
			return nil, ErrNotFound
		}
		if !m.OwnedBy(userID) && !target.ContributedBy(userID) {
			s.log.Warn().Int("marker_id", id).Str("user_id", userID).Msg("unauthorized image delete attempt")
			return nil, ErrForbidden
		}
		if err := s.db.Delete(target).Error; err != nil {
			return nil, err
		}
		s.images.Delete(imageURL)
	}

	s.log.Info().Int("marker_id", id).Str("url", imageURL).Msg("image deleted")
	return s.GetMarker(id)
}

// DeleteImageByID removes a secondary image by its own identifier, without
// going through the parent marker. Contributor or marker owner only.
func (s *MarkerService) DeleteImageByID(imageID int, userID string) (bool, error) {
	var img models.MarkerImage
	if err := s.db.Preload("Marker").First(&img, imageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	ownerOK := img.Marker != nil && img.Marker.OwnedBy(userID)
	if !ownerOK && !img.ContributedBy(userID) {
		s.log.Warn().Int("image_id", imageID).Str("user_id", userID).Msg("unauthorized image delete attempt")
		return false, nil
	}

	s.images.Delete(img.ImageUrl)
	if err := s.db.Delete(&img).Error; err != nil {
		return false, err
	}
	s.log.Info().Int("image_id", imageID).Str("user_id", userID).Msg("image deleted by id")
	return true, nil
}

// toView shapes a loaded marker into its response form: legacy image paths
// are normalized to the canonical serving path and the average rating is
// recomputed from the rating rows rather than trusted from the stored scalar.
func (s *MarkerService) toView(m *models.Marker) *models.MarkerView {
	imageURL := m.ImageUrl
	if m.ImageUrl != nil {
		for _, prefix := range legacyImagePrefixes {
			if strings.HasPrefix(*m.ImageUrl, prefix) {
				normalized := "/uploads/images/" + path.Base(*m.ImageUrl)
				imageURL = &normalized
				break
			}
		}
	}

	rating := m.Rating
	if len(m.Ratings) > 0 {
		rating = averageRating(m.Ratings)
	}

	images := make([]models.MarkerImageView, 0, len(m.Images))
	for _, img := range m.Images {
		view := models.MarkerImageView{ID: img.ID, ImageUrl: img.ImageUrl, UserID: img.UserID}
		if img.User != nil {
			view.UserName = &img.User.Name
		}
		images = append(images, view)
	}

	ratings := make([]models.MarkerRatingView, 0, len(m.Ratings))
	for _, r := range m.Ratings {
		view := models.MarkerRatingView{ID: r.ID, Value: r.Value, UserID: r.UserID}
		if r.User != nil {
			view.UserName = &r.User.Name
		}
		ratings = append(ratings, view)
	}

	ownerID := ""
	if m.UserID != nil {
		ownerID = *m.UserID
	}
	var ownerName *string
	if m.User != nil {
		ownerName = &m.User.Name
	}

	return &models.MarkerView{
		ID:          m.ID,
		Name:        m.Name,
		Position:    m.Position,
		Type:        m.Type,
		UserID:      ownerID,
		UserName:    ownerName,
		Description: m.Description,
		ImageUrl:    imageURL,
		Rating:      rating,
		Images:      images,
		Ratings:     ratings,
	}
}

func averageRating(ratings []models.MarkerRating) *float64 {
	if len(ratings) == 0 {
		return nil
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	avg := float64(sum) / float64(len(ratings))
	return &avg
}
