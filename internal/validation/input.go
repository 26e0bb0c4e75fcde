package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ignatzorin/petway-backend/internal/models"
	"github.com/ignatzorin/petway-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MaxNameLength           = 50
	MaxSecretQuestionLength = 200
	MaxSecretAnswerLength   = 200
	MaxPetFieldLength       = 100
	MaxDescriptionLength    = 2000
	MaxPhoneLength          = 20
)

var (
	htmlTagRegex  = regexp.MustCompile(`<[^>]*>?`)
	phoneRegex    = regexp.MustCompile(`[^\d+]`)
	emailLocalRe  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRe = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation(fmt.Sprintf("%s должен быть не менее %d символов", fieldName, min))
	}
	if max > 0 && length > max {
		return apperror.Validation(fmt.Sprintf("%s должен быть не более %d символов", fieldName, max))
	}
	return nil
}

// NormalizeEmail приводит email к каноническому виду: без пробелов, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат уже нормализованного email.
func ValidateEmail(email string) error {
	if email == "" {
		return apperror.Validation("email обязателен")
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return apperror.Validation("некорректный формат email")
	}

	if len(local) == 0 || len(local) > 64 {
		return apperror.Validation("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domain) == 0 || len(domain) > 255 {
		return apperror.Validation("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRe.MatchString(local) {
		return apperror.Validation("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRe.MatchString(domain) {
		return apperror.Validation("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateRequired проверяет, что строка не пустая.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(fmt.Sprintf("%s обязателен", fieldName))
	}
	return nil
}

// SanitizeText удаляет HTML теги и крайние пробелы.
func SanitizeText(value string) string {
	return strings.TrimSpace(htmlTagRegex.ReplaceAllString(value, ""))
}

// SanitizePhone оставляет в телефоне только цифры и +.
func SanitizePhone(phone string) string {
	return phoneRegex.ReplaceAllString(phone, "")
}

// NormalizeAnswer готовит секретный ответ к хешированию и сравнению.
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// ValidateName проверяет отображаемое имя после очистки.
func ValidateName(name string) error {
	if err := ValidateRequired("имя", name); err != nil {
		return err
	}
	return ValidateLength("имя", name, 1, MaxNameLength)
}

// ValidateSecretQA проверяет пару секретный вопрос / ответ.
func ValidateSecretQA(question, answer string) error {
	if err := ValidateRequired("секретный вопрос", question); err != nil {
		return err
	}
	if err := ValidateLength("секретный вопрос", question, 1, MaxSecretQuestionLength); err != nil {
		return err
	}
	if err := ValidateRequired("секретный ответ", answer); err != nil {
		return err
	}
	if err := ValidateLength("секретный ответ", answer, 1, MaxSecretAnswerLength); err != nil {
		return err
	}
	// Ответ хешируется bcrypt, как и пароль.
	if len(answer) > MaxPasswordBytes {
		return apperror.Validation(fmt.Sprintf("секретный ответ должен быть не длиннее %d байт", MaxPasswordBytes))
	}
	return nil
}

// ValidateVerificationCode проверяет, что код состоит из 6 цифр.
func ValidateVerificationCode(code string) error {
	if len(code) != 6 {
		return apperror.Validation("код должен состоять из 6 цифр")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return apperror.Validation("код должен состоять из 6 цифр")
		}
	}
	return nil
}

// ValidatePetStatus проверяет статус объявления.
func ValidatePetStatus(status string) error {
	if _, ok := models.ValidPetStatuses[status]; !ok {
		return apperror.Validation("статус должен быть lost или found")
	}
	return nil
}

// ValidateLocation проверяет диапазоны координат.
func ValidateLocation(loc *models.GeoPoint) error {
	if loc == nil {
		return nil
	}
	if loc.Lng < -180 || loc.Lng > 180 {
		return apperror.Validation("долгота должна быть в диапазоне [-180, 180]")
	}
	if loc.Lat < -90 || loc.Lat > 90 {
		return apperror.Validation("широта должна быть в диапазоне [-90, 90]")
	}
	return nil
}

// ValidatePet проверяет поля объявления после очистки.
func ValidatePet(p *models.Pet) error {
	required := []struct{ field, value string }{
		{"имя питомца", p.Name},
		{"вид", p.Kind},
		{"город", p.City},
	}
	for _, r := range required {
		if err := ValidateRequired(r.field, r.value); err != nil {
			return err
		}
	}

	limited := []struct {
		field, value string
		max          int
	}{
		{"имя питомца", p.Name, MaxPetFieldLength},
		{"вид", p.Kind, MaxPetFieldLength},
		{"порода", p.Breed, MaxPetFieldLength},
		{"возраст", p.Age, MaxPetFieldLength},
		{"город", p.City, MaxPetFieldLength},
		{"описание", p.Description, MaxDescriptionLength},
		{"телефон", p.Phone, MaxPhoneLength},
	}
	for _, l := range limited {
		if err := ValidateLength(l.field, l.value, 0, l.max); err != nil {
			return err
		}
	}

	if err := ValidatePetStatus(p.Status); err != nil {
		return err
	}
	return ValidateLocation(p.Location)
}
