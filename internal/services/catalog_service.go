package services

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mmex/internal/amqp"
	"mmex/internal/core"
	"mmex/internal/storage"
)

// CatalogService manages the reference data transactions point at.
type CatalogService struct {
	store    CatalogStore
	notifier *Notifier
}

func NewCatalogService(store CatalogStore, notifier *Notifier) *CatalogService {
	return &CatalogService{store: store, notifier: notifier}
}

func (s *CatalogService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Status == "" {
		a.Status = core.AccountOpen
	}
	if a.Type == "" {
		a.Type = "Checking"
	}
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	id, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	a.ID = id
	s.notifier.changed(ctx, amqp.EntityAccount, amqp.ActionCreated, id)
	return a, nil
}

func (s *CatalogService) Accounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *CatalogService) CreatePayee(ctx context.Context, p core.Payee) (core.Payee, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return core.Payee{}, core.ErrEmptyName
	}
	id, err := s.store.CreatePayee(ctx, p)
	if err != nil {
		return core.Payee{}, err
	}
	p.ID = id
	s.notifier.changed(ctx, amqp.EntityPayee, amqp.ActionCreated, id)
	return p, nil
}

func (s *CatalogService) Payees(ctx context.Context) ([]core.Payee, error) {
	return s.store.ListPayees(ctx)
}

// CreateCategory adds a top-level category, or a subcategory of parentID
// when it is set.
func (s *CatalogService) CreateCategory(ctx context.Context, name string, parentID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	var (
		id  int64
		err error
	)
	if parentID > 0 {
		id, err = s.store.CreateSubcategory(ctx, parentID, name)
	} else {
		id, err = s.store.CreateCategory(ctx, name)
	}
	if err != nil {
		return 0, err
	}
	s.notifier.changed(ctx, amqp.EntityCategory, amqp.ActionCreated, id)
	return id, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) Account(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// SetAccountStatus opens or closes an account. Closed accounts drop out of
// the summary when only open accounts are shown.
func (s *CatalogService) SetAccountStatus(ctx context.Context, id int64, status core.AccountStatus) error {
	if status != core.AccountOpen && status != core.AccountClosed {
		return fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}
	if err := s.store.SetAccountStatus(ctx, id, status); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityAccount, amqp.ActionUpdated, id)
	return nil
}

func (s *CatalogService) Payee(ctx context.Context, id int64) (core.Payee, error) {
	return s.store.GetPayee(ctx, id)
}

// DeleteCategory removes a category with its subcategories.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntityCategory, amqp.ActionDeleted, id)
	return nil
}

func (s *CatalogService) Currencies(ctx context.Context) ([]core.Currency, error) {
	return s.store.ListCurrencies(ctx)
}

func (s *CatalogService) CreateCurrency(ctx context.Context, c core.Currency) (core.Currency, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Symbol = strings.ToUpper(strings.TrimSpace(c.Symbol))
	if c.Name == "" || c.Symbol == "" {
		return core.Currency{}, core.ErrEmptyName
	}
	if !c.BaseConvRate.IsPositive() {
		return core.Currency{}, fmt.Errorf("%w: conversion rate must be positive", core.ErrInvalidAmount)
	}
	id, err := s.store.CreateCurrency(ctx, c)
	if err != nil {
		return core.Currency{}, err
	}
	c.ID = id
	s.notifier.changed(ctx, amqp.EntityCurrency, amqp.ActionCreated, id)
	return c, nil
}

// Settings are the database-wide values kept in the info table, shared by
// every client opening the same file.
type Settings struct {
	UserName       string `json:"username"`
	DateFormat     string `json:"date_format"`
	BaseCurrencyID int64  `json:"base_currency_id"`
}

// SettingKeys lists the names SetSetting accepts.
var SettingKeys = []string{"username", "date_format", "base_currency_id"}

var settingInfo = map[string]string{
	"username":         storage.InfoUserName,
	"date_format":      storage.InfoDateFormat,
	"base_currency_id": storage.InfoBaseCurrencyID,
}

func (s *CatalogService) Settings(ctx context.Context) (Settings, error) {
	var out Settings
	var err error
	if out.UserName, err = s.store.GetInfo(ctx, storage.InfoUserName, ""); err != nil {
		return Settings{}, err
	}
	if out.DateFormat, err = s.store.GetInfo(ctx, storage.InfoDateFormat, core.DefaultDateFormat); err != nil {
		return Settings{}, err
	}
	base, err := s.store.GetInfo(ctx, storage.InfoBaseCurrencyID, "1")
	if err != nil {
		return Settings{}, err
	}
	if out.BaseCurrencyID, err = strconv.ParseInt(base, 10, 64); err != nil {
		return Settings{}, fmt.Errorf("%w: stored base currency %q", core.ErrInvalidSetting, base)
	}
	return out, nil
}

// SetSetting validates and stores one setting by its key in SettingKeys.
func (s *CatalogService) SetSetting(ctx context.Context, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	name, ok := settingInfo[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q", core.ErrInvalidSetting, key)
	}
	value = strings.TrimSpace(value)

	switch key {
	case "date_format":
		if !strings.Contains(value, "%d") || !strings.Contains(value, "%m") || !strings.Contains(value, "%Y") {
			return fmt.Errorf("%w: date format %q needs %%d, %%m and %%Y", core.ErrInvalidSetting, value)
		}
	case "base_currency_id":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: base currency %q", core.ErrInvalidSetting, value)
		}
		currencies, err := s.store.ListCurrencies(ctx)
		if err != nil {
			return err
		}
		if !slices.ContainsFunc(currencies, func(c core.Currency) bool { return c.ID == id }) {
			return fmt.Errorf("currency %d: %w", id, core.ErrNotFound)
		}
	}

	if err := s.store.SetInfo(ctx, name, value); err != nil {
		return err
	}
	s.notifier.changed(ctx, amqp.EntitySettings, amqp.ActionUpdated, 0)
	return nil
}
