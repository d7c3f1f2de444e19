// Package i18n renders the user-facing copy for edit failures in the
// locales the site ships and resolves which locale a request wants.
package i18n

import (
	"errors"

	"golang.org/x/text/language"

	"editlab/internal/domain"
)

var (
	supported = []language.Tag{language.English, language.Indonesian}
	codes     = []string{"en", "id"}
	matcher   = language.NewMatcher(supported)
)

// Normalize maps an arbitrary language tag onto a supported locale code.
// Anything unparseable or unsupported falls back to English.
func Normalize(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return codes[0]
	}
	_, idx, _ := matcher.Match(tag)
	return codes[idx]
}

// MatchAcceptLanguage picks a supported locale from an Accept-Language
// header. It returns "" when the header names no language we ship, so
// callers can fall through to other signals.
func MatchAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return codes[idx]
}

// Region extracts the country from a locale like "en-US". Tags without an
// explicit region report one at low confidence (plain "en" guesses US);
// those guesses are discarded.
func Region(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf != language.Exact || !region.IsCountry() {
		return ""
	}
	return region.String()
}

// AcceptLanguageRegion returns the first explicitly tagged country in an
// Accept-Language header.
func AcceptLanguageRegion(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return ""
	}
	for _, tag := range tags {
		if region, conf := tag.Region(); conf == language.Exact && region.IsCountry() {
			return region.String()
		}
	}
	return ""
}

const genericKind = domain.ErrorKind("")

var messages = map[string]map[domain.ErrorKind]string{
	"en": {
		domain.KindValidation:    "Your request could not be accepted",
		domain.KindTransport:     "We could not reach the image service. Please try again.",
		domain.KindRateLimit:     "The image service is busy right now. Please try again in a moment.",
		domain.KindSafetyBlock:   "The request was declined by the provider's safety system",
		domain.KindRefusal:       "The model replied with text instead of an image",
		domain.KindEmptyResponse: "The image service returned no image. Please try again.",
		domain.KindProvider:      "The image service reported an error. Please try again later.",
		domain.KindDecode:        "The image could not be read.",
		domain.KindRaster:        "The image could not be cropped.",
		genericKind:              "Something went wrong. Please try again.",
	},
	"id": {
		domain.KindValidation:    "Permintaan Anda tidak dapat diproses",
		domain.KindTransport:     "Kami tidak dapat menghubungi layanan gambar. Silakan coba lagi.",
		domain.KindRateLimit:     "Layanan gambar sedang sibuk. Silakan coba beberapa saat lagi.",
		domain.KindSafetyBlock:   "Permintaan ditolak oleh sistem keamanan penyedia",
		domain.KindRefusal:       "Model membalas dengan teks, bukan gambar",
		domain.KindEmptyResponse: "Layanan gambar tidak mengembalikan gambar. Silakan coba lagi.",
		domain.KindProvider:      "Layanan gambar melaporkan kesalahan. Silakan coba lagi nanti.",
		domain.KindDecode:        "Gambar tidak dapat dibaca.",
		domain.KindRaster:        "Gambar tidak dapat dipotong.",
		genericKind:              "Terjadi kesalahan. Silakan coba lagi.",
	},
}

// ErrorMessage localizes err for the given locale. Safety blocks, refusals
// and validation failures carry the original wording verbatim because the
// user needs to see exactly what was rejected and why.
func ErrorMessage(locale string, err error) string {
	if err == nil {
		return ""
	}

	catalog, ok := messages[Normalize(locale)]
	if !ok {
		catalog = messages["en"]
	}

	kind := domain.KindOf(err)
	text, ok := catalog[kind]
	if !ok {
		text = messages["en"][genericKind]
		if generic, ok := catalog[genericKind]; ok {
			text = generic
		}
	}

	var editErr *domain.EditError
	if errors.As(err, &editErr) {
		switch editErr.Kind {
		case domain.KindSafetyBlock, domain.KindRefusal, domain.KindValidation:
			return text + ": " + editErr.Message
		}
	}
	return text
}
