package models

// MarkerCreateRequest is the body of POST /api/markers. The owner is always
// taken from the authenticated caller, never from the body.
type MarkerCreateRequest struct {
	Name     string      `json:"name" binding:"required"`
	Position Coordinates `json:"position" binding:"required"`
	Type     string      `json:"type" binding:"required"`
}

// MarkerUpdateRequest carries partial updates. A nil field leaves the
// corresponding marker attribute unchanged.
type MarkerUpdateRequest struct {
	Name        *string      `json:"name"`
	Position    *Coordinates `json:"position"`
	Type        *string      `json:"type"`
	Description *string      `json:"description"`
}

type RatingRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

// MarkerView is the shape every marker read and mutation returns.
type MarkerView struct {
	ID          int                `json:"id"`
	Name        string             `json:"name"`
	Position    Coordinates        `json:"position"`
	Type        string             `json:"type"`
	UserID      string             `json:"userId"`
	UserName    *string            `json:"userName,omitempty"`
	Description *string            `json:"description,omitempty"`
	ImageUrl    *string            `json:"imageUrl,omitempty"`
	Rating      *float64           `json:"rating,omitempty"`
	Images      []MarkerImageView  `json:"images"`
	Ratings     []MarkerRatingView `json:"ratings"`
}

type MarkerImageView struct {
	ID       int     `json:"id"`
	ImageUrl string  `json:"imageUrl"`
	UserID   *string `json:"userId,omitempty"`
	UserName *string `json:"userName,omitempty"`
}

type MarkerRatingView struct {
	ID       int     `json:"id"`
	Value    int     `json:"value"`
	UserID   string  `json:"userId"`
	UserName *string `json:"userName,omitempty"`
}

type UserProfile struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
}

type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         UserProfile `json:"user"`
}
