package models

import "time"

type SubscriptionTier string
type EmployeeStatus string
type OrderStatus string
type Currency string
type NotificationType string
type CatalogKind string

const (
	TierNone    SubscriptionTier = "None"
	TierTrial   SubscriptionTier = "Trial"
	TierBasic   SubscriptionTier = "Basic"
	TierPremium SubscriptionTier = "Premium"

	EmployeeStatusAuthorized    EmployeeStatus = "Authorized"
	EmployeeStatusPendingInvite EmployeeStatus = "PendingInvite"

	OrderStatusNew      OrderStatus = "New"
	OrderStatusProcess  OrderStatus = "Process"
	OrderStatusChecking OrderStatus = "Checking"
	OrderStatusSending  OrderStatus = "Sending"
	OrderStatusArrived  OrderStatus = "Arrived"

	CurrencySom   Currency = "Som"
	CurrencyRuble Currency = "Ruble"
	CurrencyUSD   Currency = "USD"
	CurrencyEuro  Currency = "Euro"

	NotificationTypeOrder        NotificationType = "Order"
	NotificationTypeEquipment    NotificationType = "Equipment"
	NotificationTypeService      NotificationType = "Service"
	NotificationTypeOrganization NotificationType = "Organization"
	NotificationTypeChat         NotificationType = "Chat"

	CatalogEquipment CatalogKind = "equipment"
	CatalogService   CatalogKind = "service"
	CatalogVacancy   CatalogKind = "vacancy"
)

// orderChain - единственный допустимый порядок статусов заказа
var orderChain = []OrderStatus{
	OrderStatusNew,
	OrderStatusProcess,
	OrderStatusChecking,
	OrderStatusSending,
	OrderStatusArrived,
}

// Next возвращает следующий статус; false для Arrived и неизвестных
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i, st := range orderChain {
		if st == s && i+1 < len(orderChain) {
			return orderChain[i+1], true
		}
	}
	return "", false
}

func (s OrderStatus) Valid() bool {
	for _, st := range orderChain {
		if st == s {
			return true
		}
	}
	return false
}

func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierNone, TierTrial, TierBasic, TierPremium:
		return true
	}
	return false
}

func (c Currency) Valid() bool {
	switch c {
	case CurrencySom, CurrencyRuble, CurrencyUSD, CurrencyEuro:
		return true
	}
	return false
}

// TierLimits - лимит владения организациями и срок действия тарифа (0 - бессрочно)
type TierLimits struct {
	MaxOrganizations int
	Window           time.Duration
}

var tierTable = map[SubscriptionTier]TierLimits{
	TierNone:    {MaxOrganizations: 0},
	TierTrial:   {MaxOrganizations: 1, Window: 7 * 24 * time.Hour},
	TierBasic:   {MaxOrganizations: 1, Window: 60 * 24 * time.Hour},
	TierPremium: {MaxOrganizations: 5},
}

func (t SubscriptionTier) Limits() TierLimits {
	return tierTable[t]
}
