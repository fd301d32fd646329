package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/repository"
)

type AddressDTO struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	RecipientName string  `json:"recipient_name"`
	Phone         string  `json:"phone"`
	Line1         string  `json:"line1"`
	Line2         string  `json:"line2"`
	City          string  `json:"city"`
	District      string  `json:"district"`
	PostalCode    string  `json:"postal_code"`
	Country       string  `json:"country"`
	IsDefault     bool    `json:"is_default"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     *string `json:"updated_at,omitempty"`
}

// 作成・更新・ゲスト購入で共通の入力
type AddressInput struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2"`
	City          string `json:"city"`
	District      string `json:"district"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}

// 入力チェックと整形
func (in AddressInput) normalize() (AddressInput, error) {
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	// 市・区は「İzmir」「Karşıyaka」の形にそろえる（Caserは使い回さない）
	in.City = cases.Title(language.Turkish).String(strings.TrimSpace(in.City))
	in.District = cases.Title(language.Turkish).String(strings.TrimSpace(in.District))
	in.PostalCode = strings.TrimSpace(in.PostalCode)

	if in.RecipientName == "" || in.Line1 == "" || in.City == "" || in.District == "" {
		return AddressInput{}, errValidation("recipient_name, line1, city and district are required")
	}
	if !validPhone(in.Phone) {
		return AddressInput{}, errValidation("invalid phone")
	}
	if in.PostalCode != "" && (len(in.PostalCode) != 5 || !allDigits(in.PostalCode)) {
		return AddressInput{}, errValidation("invalid postal_code")
	}
	return in, nil
}

func (in AddressInput) toModel(userID int64) model.Address {
	return model.Address{
		UserID:        userID,
		RecipientName: in.RecipientName,
		Phone:         in.Phone,
		Line1:         in.Line1,
		Line2:         in.Line2,
		City:          in.City,
		District:      in.District,
		PostalCode:    in.PostalCode,
		Country:       model.AddressCountry,
		IsDefault:     in.IsDefault,
	}
}

// 10〜13桁（+90や先頭0を許す）
func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, " ", "")
	return len(s) >= 10 && len(s) <= 13 && allDigits(s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

type AddressUsecase struct {
	addresses repository.AddressRepository
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dbError(ctx, err)
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

// 最初の住所は自動でデフォルトになる
func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized()
	}

	//入力チェック
	in, err := req.normalize()
	if err != nil {
		return AddressDTO{}, err
	}

	now := time.Now()
	a := in.toModel(userID)
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, dbError(ctx, err)
	}

	return toAddressDTO(&created), nil
}

// 他人の住所は「存在しない」扱い
func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized()
	}
	if addressID <= 0 {
		return AddressDTO{}, errValidation("invalid address id")
	}

	in, err := req.normalize()
	if err != nil {
		return AddressDTO{}, err
	}

	a := in.toModel(userID)
	a.ID = addressID
	a.UpdatedAt = time.Now()

	if err := u.addresses.Update(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AddressDTO{}, errNotFound()
		}
		return AddressDTO{}, dbError(ctx, err)
	}

	updated, err := u.addresses.FindByIDForUser(ctx, addressID, userID)
	if err != nil {
		return AddressDTO{}, dbError(ctx, err)
	}
	return toAddressDTO(&updated), nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if addressID <= 0 {
		return errValidation("invalid address id")
	}

	if err := u.addresses.Delete(ctx, addressID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound()
		}
		return dbError(ctx, err)
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if addressID <= 0 {
		return errValidation("invalid address id")
	}

	//user内でdefaultは1つ
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errNotFound()
		}
		return dbError(ctx, err)
	}
	return nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:            a.ID,
		UserID:        a.UserID,
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Line1:         a.Line1,
		Line2:         a.Line2,
		City:          a.City,
		District:      a.District,
		PostalCode:    a.PostalCode,
		Country:       a.Country,
		IsDefault:     a.IsDefault,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
