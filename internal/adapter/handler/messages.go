package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rl1809/storefront/internal/core/service"
)

func addFlash(outcome service.Outcome) Flash {
	switch outcome {
	case service.OutcomeSuccess:
		return Flash{Kind: FlashSuccess, Title: "Hore!", Message: "Produk berhasil ditambahkan di keranjang"}
	case service.OutcomeNotFound:
		return Flash{Kind: FlashError, Title: "Oops", Message: "Product not found."}
	case service.OutcomeInvalidVariant:
		return Flash{Kind: FlashError, Title: "Oops", Message: "Invalid variant selected."}
	case service.OutcomeStockLimitReached:
		return Flash{Kind: FlashError, Title: "Oops", Message: "Maximum stock reached for this variant."}
	case service.OutcomeInvalidInput:
		return Flash{Kind: FlashError, Title: "Oops", Message: "Invalid request."}
	default:
		return Flash{Kind: FlashError, Title: "Oops", Message: "Something went wrong, please try again."}
	}
}

func orderNotFoundFlash(term string) Flash {
	return Flash{
		Kind:    FlashError,
		Title:   "Pesanan Tidak Ditemukan",
		Message: fmt.Sprintf("Tidak ada pesanan dengan ID: %s", term),
	}
}

func accountFlash(err error) Flash {
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		return Flash{Kind: FlashError, Title: "Oops", Message: "Email sudah terdaftar."}
	case errors.Is(err, service.ErrInvalidCredentials):
		return Flash{Kind: FlashError, Title: "Oops", Message: "Email atau password salah."}
	case errors.Is(err, service.ErrInvalidRegistration):
		return Flash{Kind: FlashError, Title: "Oops", Message: "Periksa kembali nama, email, dan password (minimal 8 karakter)."}
	default:
		return addFlash(service.OutcomeOf(err))
	}
}

func httpStatus(outcome service.Outcome) int {
	switch outcome {
	case service.OutcomeSuccess:
		return http.StatusOK
	case service.OutcomeNotFound, service.OutcomeNoResults:
		return http.StatusNotFound
	case service.OutcomeInvalidVariant:
		return http.StatusUnprocessableEntity
	case service.OutcomeStockLimitReached:
		return http.StatusConflict
	case service.OutcomeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
