package errs

import "net/http"

// errorMap holds the template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "File exceeds the %d MB limit.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrNoFileUploaded:        {Code: ErrNoFileUploaded, Message: "No file uploaded.", Status: http.StatusBadRequest},
	ErrFileNotFound:          {Code: ErrFileNotFound, Message: "File not found.", Status: http.StatusNotFound},

	// 2xxx
	ErrRoomNotFound:      {Code: ErrRoomNotFound, Message: "房間不存在", Status: http.StatusNotFound},
	ErrPasswordRequired:  {Code: ErrPasswordRequired, Message: "need_password", Status: http.StatusUnauthorized},
	ErrPasswordIncorrect: {Code: ErrPasswordIncorrect, Message: "密碼錯誤", Status: http.StatusForbidden},

	// 5xxx
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File storage failed. Please try again.", Status: http.StatusInternalServerError},
}
