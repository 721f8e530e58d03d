package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScanType tags what kind of scan a document came from.
type ScanType string

const (
	ScanTypeID       ScanType = "id"
	ScanTypeBusiness ScanType = "business"
	ScanTypeBook     ScanType = "book"
	ScanTypeDocument ScanType = "document"
)

// ScanTypes lists the accepted scan types in display order.
var ScanTypes = []ScanType{ScanTypeID, ScanTypeBusiness, ScanTypeBook, ScanTypeDocument}

// Valid reports whether t is one of ScanTypes.
func (t ScanType) Valid() bool {
	for _, s := range ScanTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Document is a scanned record owned by exactly one user.
type Document struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	DocumentName string    `json:"document_name"`
	ScanType     ScanType  `json:"scan_type"`
	IsFavorite   bool      `json:"is_favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// ID card
	Name         *string `json:"name,omitempty"`
	Profession   *string `json:"profession,omitempty"`
	Email        *string `json:"email,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty"`
	Address      *string `json:"address,omitempty"`

	// Business card
	CompanyName *string `json:"company_name,omitempty"`
	Website     *string `json:"website,omitempty"`

	// Book
	ISBNNo        *int64  `json:"isbn_no,omitempty"`
	BookName      *string `json:"book_name,omitempty"`
	AuthorName    *string `json:"author_name,omitempty"`
	Publication   *string `json:"publication,omitempty"`
	NumberOfPages *int    `json:"number_of_pages,omitempty"`
	Subject       *string `json:"subject,omitempty"`

	// Generic document
	Summary *string `json:"summary,omitempty"`
}

// DocumentUpdate is a partial update of a document. Nil slots are left untouched.
type DocumentUpdate struct {
	DocumentName  *string   `json:"document_name,omitempty"`
	ScanType      *ScanType `json:"scan_type,omitempty"`
	IsFavorite    *bool     `json:"is_favorite,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Profession    *string   `json:"profession,omitempty"`
	Email         *string   `json:"email,omitempty"`
	MobileNumber  *string   `json:"mobile_number,omitempty"`
	Address       *string   `json:"address,omitempty"`
	CompanyName   *string   `json:"company_name,omitempty"`
	Website       *string   `json:"website,omitempty"`
	ISBNNo        *int64    `json:"isbn_no,omitempty"`
	BookName      *string   `json:"book_name,omitempty"`
	AuthorName    *string   `json:"author_name,omitempty"`
	Publication   *string   `json:"publication,omitempty"`
	NumberOfPages *int      `json:"number_of_pages,omitempty"`
	Subject       *string   `json:"subject,omitempty"`
	Summary       *string   `json:"summary,omitempty"`
}

// IsEmpty reports whether the update carries no changes.
func (u DocumentUpdate) IsEmpty() bool {
	return u.DocumentName == nil && u.ScanType == nil && u.IsFavorite == nil &&
		u.Name == nil && u.Profession == nil && u.Email == nil && u.MobileNumber == nil &&
		u.Address == nil && u.CompanyName == nil && u.Website == nil && u.ISBNNo == nil &&
		u.BookName == nil && u.AuthorName == nil && u.Publication == nil &&
		u.NumberOfPages == nil && u.Subject == nil && u.Summary == nil
}

// Apply applies the update to d in place.
func (u DocumentUpdate) Apply(d *Document) {
	if u.DocumentName != nil {
		d.DocumentName = *u.DocumentName
	}
	if u.ScanType != nil {
		d.ScanType = *u.ScanType
	}
	if u.IsFavorite != nil {
		d.IsFavorite = *u.IsFavorite
	}
	setString(&d.Name, u.Name)
	setString(&d.Profession, u.Profession)
	setString(&d.Email, u.Email)
	setString(&d.MobileNumber, u.MobileNumber)
	setString(&d.Address, u.Address)
	setString(&d.CompanyName, u.CompanyName)
	setString(&d.Website, u.Website)
	if u.ISBNNo != nil {
		v := *u.ISBNNo
		d.ISBNNo = &v
	}
	setString(&d.BookName, u.BookName)
	setString(&d.AuthorName, u.AuthorName)
	setString(&d.Publication, u.Publication)
	if u.NumberOfPages != nil {
		v := *u.NumberOfPages
		d.NumberOfPages = &v
	}
	setString(&d.Subject, u.Subject)
	setString(&d.Summary, u.Summary)
}

// SearchFields are matched case-insensitively by document search.
var SearchFields = []string{"document_name", "name", "book_name", "author_name", "company_name"}

// Page is a skip/limit window over a listing.
type Page struct {
	Skip  int
	Limit int
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func setString(dst **string, src *string) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
