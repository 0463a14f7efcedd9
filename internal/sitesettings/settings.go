package sitesettings

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidSocialLink = errors.New("social link needs a label and a url")

type SocialLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Settings is the single row of site wide content shown on the public pages.
type Settings struct {
	ArtistName     string       `json:"artist_name"`
	ArtistSubtitle string       `json:"artist_subtitle"`
	ArtistEmail    string       `json:"artist_email"`
	AboutText      string       `json:"about_text"`
	AboutPhotoURL  string       `json:"about_photo_url"`
	ContactText    string       `json:"contact_text"`
	ContactEmail   string       `json:"contact_email"`
	SocialLinks    []SocialLink `json:"social_links"`
	UpdatedAt      time.Time    `json:"-"`
}

// Defaults mirror the column defaults of a freshly created row.
func Defaults() *Settings {
	return &Settings{
		ArtistName:     "Ekateryna",
		ArtistSubtitle: "Illustrator, Amsterdam",
		ArtistEmail:    "hello@ekateryna.art",
		ContactText:    "For commissions, collaborations, or just to say hello:",
		ContactEmail:   "hello@ekateryna.art",
		SocialLinks:    []SocialLink{},
	}
}

// Update is a partial update, nil fields are left as they are.
type Update struct {
	ArtistName     *string       `json:"artist_name"`
	ArtistSubtitle *string       `json:"artist_subtitle"`
	ArtistEmail    *string       `json:"artist_email"`
	AboutText      *string       `json:"about_text"`
	AboutPhotoURL  *string       `json:"about_photo_url"`
	ContactText    *string       `json:"contact_text"`
	ContactEmail   *string       `json:"contact_email"`
	SocialLinks    *[]SocialLink `json:"social_links"`
}

func (u *Update) Validate() error {
	if u.SocialLinks == nil {
		return nil
	}
	if *u.SocialLinks == nil {
		u.SocialLinks = &[]SocialLink{}
	}
	for i, link := range *u.SocialLinks {
		link.Label = strings.TrimSpace(link.Label)
		link.URL = strings.TrimSpace(link.URL)
		if link.Label == "" || link.URL == "" {
			return ErrInvalidSocialLink
		}
		(*u.SocialLinks)[i] = link
	}
	return nil
}

func (u *Update) Apply(s *Settings) {
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&s.ArtistName, u.ArtistName)
	apply(&s.ArtistSubtitle, u.ArtistSubtitle)
	apply(&s.ArtistEmail, u.ArtistEmail)
	apply(&s.AboutText, u.AboutText)
	apply(&s.AboutPhotoURL, u.AboutPhotoURL)
	apply(&s.ContactText, u.ContactText)
	apply(&s.ContactEmail, u.ContactEmail)
	if u.SocialLinks != nil {
		s.SocialLinks = *u.SocialLinks
	}
}
