package mongostore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
)

type userRecord struct {
	ID               string     `bson:"_id"`
	Email            string     `bson:"email"`
	PasswordHash     string     `bson:"password_hash"`
	FirstName        *string    `bson:"first_name,omitempty"`
	LastName         *string    `bson:"last_name,omitempty"`
	MobileNumber     *string    `bson:"mobile_number,omitempty"`
	AuthProvider     *string    `bson:"auth_provider,omitempty"`
	ProviderID       *string    `bson:"provider_id,omitempty"`
	ProfilePicture   *string    `bson:"profile_picture,omitempty"`
	TempPasswordHash *string    `bson:"temp_password_hash,omitempty"`
	OTPExpiration    *time.Time `bson:"otp_expiration,omitempty"`
	CreatedAt        time.Time  `bson:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at"`
}

func toUserRecord(u *domain.User) userRecord {
	return userRecord{
		ID:               u.ID.String(),
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		MobileNumber:     u.MobileNumber,
		AuthProvider:     u.AuthProvider,
		ProviderID:       u.ProviderID,
		ProfilePicture:   u.ProfilePicture,
		TempPasswordHash: u.TempPasswordHash,
		OTPExpiration:    u.OTPExpiration,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (r userRecord) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("user record id: %w", err)
	}
	return &domain.User{
		ID:               id,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		MobileNumber:     r.MobileNumber,
		AuthProvider:     r.AuthProvider,
		ProviderID:       r.ProviderID,
		ProfilePicture:   r.ProfilePicture,
		TempPasswordHash: r.TempPasswordHash,
		OTPExpiration:    r.OTPExpiration,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}, nil
}

// userUpdateDoc renders upd as a $set/$unset update document.
func userUpdateDoc(upd domain.UserUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	unset := bson.M{}

	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	put("email", upd.Email)
	put("password_hash", upd.PasswordHash)
	put("first_name", upd.FirstName)
	put("last_name", upd.LastName)
	put("mobile_number", upd.MobileNumber)
	put("auth_provider", upd.AuthProvider)
	put("provider_id", upd.ProviderID)
	put("profile_picture", upd.ProfilePicture)

	if upd.ClearOTP {
		unset["temp_password_hash"] = ""
		unset["otp_expiration"] = ""
	} else {
		put("temp_password_hash", upd.TempPasswordHash)
		if upd.OTPExpiration != nil {
			set["otp_expiration"] = *upd.OTPExpiration
		}
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}
	return doc
}

type documentRecord struct {
	ID            string    `bson:"_id"`
	UserID        string    `bson:"user_id"`
	DocumentName  string    `bson:"document_name"`
	ScanType      string    `bson:"scan_type"`
	IsFavorite    bool      `bson:"is_favorite"`
	Name          *string   `bson:"name,omitempty"`
	Profession    *string   `bson:"profession,omitempty"`
	Email         *string   `bson:"email,omitempty"`
	MobileNumber  *string   `bson:"mobile_number,omitempty"`
	Address       *string   `bson:"address,omitempty"`
	CompanyName   *string   `bson:"company_name,omitempty"`
	Website       *string   `bson:"website,omitempty"`
	ISBNNo        *int64    `bson:"isbn_no,omitempty"`
	BookName      *string   `bson:"book_name,omitempty"`
	AuthorName    *string   `bson:"author_name,omitempty"`
	Publication   *string   `bson:"publication,omitempty"`
	NumberOfPages *int      `bson:"number_of_pages,omitempty"`
	Subject       *string   `bson:"subject,omitempty"`
	Summary       *string   `bson:"summary,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toDocumentRecord(d *domain.Document) documentRecord {
	return documentRecord{
		ID:            d.ID.String(),
		UserID:        d.UserID.String(),
		DocumentName:  d.DocumentName,
		ScanType:      string(d.ScanType),
		IsFavorite:    d.IsFavorite,
		Name:          d.Name,
		Profession:    d.Profession,
		Email:         d.Email,
		MobileNumber:  d.MobileNumber,
		Address:       d.Address,
		CompanyName:   d.CompanyName,
		Website:       d.Website,
		ISBNNo:        d.ISBNNo,
		BookName:      d.BookName,
		AuthorName:    d.AuthorName,
		Publication:   d.Publication,
		NumberOfPages: d.NumberOfPages,
		Subject:       d.Subject,
		Summary:       d.Summary,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r documentRecord) toDomain() (*domain.Document, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("document record id: %w", err)
	}
	owner, err := uuid.Parse(r.UserID)
	if err != nil {
		return nil, fmt.Errorf("document record user_id: %w", err)
	}
	return &domain.Document{
		ID:            id,
		UserID:        owner,
		DocumentName:  r.DocumentName,
		ScanType:      domain.ScanType(r.ScanType),
		IsFavorite:    r.IsFavorite,
		Name:          r.Name,
		Profession:    r.Profession,
		Email:         r.Email,
		MobileNumber:  r.MobileNumber,
		Address:       r.Address,
		CompanyName:   r.CompanyName,
		Website:       r.Website,
		ISBNNo:        r.ISBNNo,
		BookName:      r.BookName,
		AuthorName:    r.AuthorName,
		Publication:   r.Publication,
		NumberOfPages: r.NumberOfPages,
		Subject:       r.Subject,
		Summary:       r.Summary,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}
