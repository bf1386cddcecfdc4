package spaces

import "time"

const (
	minScore           = 1
	maxScore           = 5
	maxReviewLength    = 2000
	maxDescriptionSize = 1000
)

// StudySpace describes a bookable or walk-in study area on campus.
type StudySpace struct {
	ID          string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	Building    string    `gorm:"column:building;size:190;not null;index:idx_study_spaces_building" json:"building"`
	Sublocation string    `gorm:"column:sublocation;size:190;not null;index:idx_study_spaces_sublocation" json:"sublocation"`
	Description string    `gorm:"column:description;type:text;not null" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:idx_study_spaces_created_at,sort:desc" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

// TableName provides the explicit table binding for GORM.
func (StudySpace) TableName() string {
	return "study_spaces"
}

// Review is an append-only rating of a study space by an authenticated user.
type Review struct {
	ID            string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	SpaceID       string    `gorm:"column:space_id;size:36;not null;index:idx_reviews_space_time,priority:1" json:"space_id"`
	Rating        int       `gorm:"column:rating;not null;index:idx_reviews_rating" json:"rating"`
	Silence       int       `gorm:"column:silence;not null" json:"silence"`
	Crowdedness   int       `gorm:"column:crowdedness;not null" json:"crowdedness"`
	Text          string    `gorm:"column:review;type:text;not null" json:"review"`
	ReportedBy    string    `gorm:"column:reported_by;size:190;not null" json:"reported_by"`
	ReporterEmail string    `gorm:"column:reporter_email;size:320;not null" json:"-"`
	Timestamp     time.Time `gorm:"column:timestamp;not null;index:idx_reviews_space_time,priority:2,sort:desc;index:idx_reviews_timestamp,sort:desc" json:"timestamp"`
}

// TableName provides the explicit table binding for GORM.
func (Review) TableName() string {
	return "reviews"
}

// Ratings holds the mean scores over every review of a space.
type Ratings struct {
	Rating      float64 `json:"rating"`
	Silence     float64 `json:"silence"`
	Crowdedness float64 `json:"crowdedness"`
	ReviewCount int64   `json:"review_count"`
}

// View is a study space decorated with its derived ratings. Ratings is nil
// until the space has at least one review.
type View struct {
	StudySpace
	Ratings *Ratings `json:"ratings"`
}

// Detail is a study space view together with its latest reviews.
type Detail struct {
	View
	RecentReviews []Review `json:"recent_reviews"`
}

// CreateInput carries the descriptive fields of a new study space.
type CreateInput struct {
	Building    string
	Sublocation string
	Description string
}

// Patch carries the descriptive fields an update may change.
type Patch struct {
	Building    *string
	Sublocation *string
	Description *string
}

// ReviewInput is a review as submitted by a client. Scores are pointers so a
// missing score can be told apart from an invalid zero.
type ReviewInput struct {
	SpaceID     string
	Rating      *int
	Silence     *int
	Crowdedness *int
	Text        string
	ReportedBy  string
}

// ReviewFilter narrows a review listing.
type ReviewFilter struct {
	SpaceID string
	Limit   int
}
