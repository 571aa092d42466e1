package apperrors

import (
	"net/http"
)

/*
Фабрики и предопределенные ошибки домена.
Сервисы возвращают их напрямую, хендлеры отдают через HandleError.
*/

// ErrNotFound - фабрика для ошибки "не найдено" (404)
// Используется, когда ошибка репозитория (gorm.ErrRecordNotFound и т.п.)
// должна быть преобразована в AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrInvalidOperation - фабрика для невалидных операций (400)
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrPermissionDenied - отказ вычислителя прав, reason уходит в details
func ErrPermissionDenied(reason string) *AppError {
	return New(CodeForbidden, "permission", "Permission denied", http.StatusForbidden).
		WithDetails(map[string]string{"reason": reason})
}

// --- Identity ---

var ErrEmailTaken = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrWeakPassword = New(
	CodeValidationFailed,
	"auth",
	"Password must be 8-15 characters long and contain letters and digits",
	http.StatusBadRequest,
)

var ErrPasswordMismatch = New(
	CodeValidationFailed,
	"auth",
	"Passwords do not match",
	http.StatusBadRequest,
)

var ErrAlreadyVerified = New(
	CodeInvalidOperation,
	"auth",
	"Email is already verified",
	http.StatusBadRequest,
)

var ErrCodeMismatch = New(
	CodeValidationFailed,
	"auth",
	"Confirmation code does not match",
	http.StatusBadRequest,
)

var ErrCodeExpired = New(
	CodeValidationFailed,
	"auth",
	"Confirmation code has expired",
	http.StatusBadRequest,
)

var ErrUserNotFound = New(
	CodeNotFound,
	"auth",
	"User not found",
	http.StatusNotFound,
)

// ErrUserNotVerified - email не подтвержден
var ErrUserNotVerified = New(
	CodeNotVerified,
	"auth",
	"Please verify your email address",
	http.StatusForbidden,
)

// ErrInvalidCredentials - неверный пароль (BadPassword)
var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrTokenRevoked = New(
	CodeTokenRevoked,
	"auth",
	"Token has been revoked",
	http.StatusUnauthorized,
)

var ErrProfileNotFound = New(
	CodeNotFound,
	"profile",
	"Profile not found",
	http.StatusNotFound,
)

// --- Subscription ---

// ErrTierDenied - тариф None не позволяет создавать организации
var ErrTierDenied = New(
	CodeTierDenied,
	"subscription",
	"Your subscription tier does not allow creating organizations",
	http.StatusForbidden,
)

var ErrSubscriptionExpired = New(
	CodeSubscriptionExpired,
	"subscription",
	"Subscription has expired",
	http.StatusForbidden,
)

// ErrQuotaExceeded - лимит организаций по тарифу исчерпан
var ErrQuotaExceeded = New(
	CodeLimitExceeded,
	"subscription",
	"Organization limit for your subscription has been reached",
	http.StatusForbidden,
)

var ErrTrialAlreadyUsed = New(
	CodeInvalidOperation,
	"subscription",
	"Trial period has already been used",
	http.StatusBadRequest,
)

var ErrInvalidTier = New(
	CodeValidationFailed,
	"subscription",
	"Unknown subscription tier",
	http.StatusBadRequest,
)

// --- Organization & membership ---

var ErrOrganizationNotFound = New(
	CodeNotFound,
	"organization",
	"Organization not found",
	http.StatusNotFound,
)

// ErrOrganizationHasOrders - заказ без исполнителя нарушил бы is_booked => org_work
var ErrOrganizationHasOrders = New(
	CodeConflict,
	"organization",
	"Organization is the contractor of booked orders and cannot be deleted",
	http.StatusConflict,
)

var ErrNotAMember = New(
	CodeForbidden,
	"organization",
	"You are not an authorized member of this organization",
	http.StatusForbidden,
)

var ErrAlreadyMember = New(
	CodeConflict,
	"organization",
	"User is already a member of an organization",
	http.StatusConflict,
)

var ErrInviteExists = New(
	CodeConflict,
	"organization",
	"Invitation already sent",
	http.StatusConflict,
)

var ErrInviteNotFound = New(
	CodeNotFound,
	"organization",
	"Invitation not found",
	http.StatusNotFound,
)

var ErrOwnerCannotLeave = New(
	CodeInvalidOperation,
	"organization",
	"Owner cannot leave or be removed from own organization",
	http.StatusBadRequest,
)

var ErrEmployeeNotFound = New(
	CodeNotFound,
	"employee",
	"Employee not found",
	http.StatusNotFound,
)

var ErrJobTitleNotFound = New(
	CodeNotFound,
	"job_title",
	"Job title not found",
	http.StatusNotFound,
)

var ErrDuplicateJobTitle = New(
	CodeConflict,
	"job_title",
	"Job title with this name already exists in organization",
	http.StatusConflict,
)

var ErrJobTitleInUse = New(
	CodeConflict,
	"job_title",
	"Job title is assigned to employees",
	http.StatusConflict,
)

var ErrFounderJobTitle = New(
	CodeInvalidOperation,
	"job_title",
	"Founder job title cannot be modified or removed",
	http.StatusBadRequest,
)

// --- Orders ---

var ErrOrderNotFound = New(
	CodeNotFound,
	"order",
	"Order not found",
	http.StatusNotFound,
)

var ErrAlreadyBooked = New(
	CodeConflict,
	"order",
	"Order is already booked",
	http.StatusConflict,
)

var ErrNotBooked = New(
	CodeInvalidOperation,
	"order",
	"Order is not booked yet",
	http.StatusBadRequest,
)

var ErrAlreadyFinished = New(
	CodeConflict,
	"order",
	"Order is already finished",
	http.StatusConflict,
)

// ErrInvalidTransition - статус меняется только вперед и только на один шаг
var ErrInvalidTransition = New(
	CodeInvalidStatus,
	"order",
	"Invalid order status transition",
	http.StatusBadRequest,
)

var ErrNotApplicant = New(
	CodeInvalidOperation,
	"order",
	"Organization has not applied to this order",
	http.StatusBadRequest,
)

var ErrOwnOrder = New(
	CodeInvalidOperation,
	"order",
	"Organization cannot apply to its own order",
	http.StatusBadRequest,
)

// --- Reviews ---

var ErrReviewExists = New(
	CodeConflict,
	"review",
	"Review for this order already exists",
	http.StatusConflict,
)

var ErrSelfReview = New(
	CodeForbidden,
	"review",
	"Order author cannot review own order",
	http.StatusForbidden,
)

var ErrOrderNotCompleted = New(
	CodeInvalidStatus,
	"review",
	"Order must be arrived or finished to be reviewed",
	http.StatusBadRequest,
)

// --- Catalog ---

var ErrItemNotFound = New(
	CodeNotFound,
	"catalog",
	"Item not found",
	http.StatusNotFound,
)

// --- Notifications ---

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

// --- Chat ---

var ErrConversationNotFound = New(
	CodeNotFound,
	"chat",
	"Conversation not found",
	http.StatusNotFound,
)

var ErrConversationAccessDenied = New(
	CodeForbidden,
	"chat",
	"Access to conversation denied",
	http.StatusForbidden,
)

var ErrSelfChat = New(
	CodeInvalidOperation,
	"chat",
	"Cannot start a conversation with yourself",
	http.StatusBadRequest,
)

var ErrInvalidAttachment = New(
	CodeValidationFailed,
	"chat",
	"Attachment must be valid base64 with a file extension",
	http.StatusBadRequest,
)

var ErrRateLimited = New(
	CodeRateLimited,
	"request",
	"Too many requests. Please slow down.",
	http.StatusTooManyRequests,
)
