package repository

import "docuflow-backend/internal/company/domain"

type CompanyRepository interface {
	FindByEmail(ownerID, email string) (*domain.Company, error)
	// UpsertByEmail creates the company on first contact from an email, or
	// refreshes LastActivityAt on repeat contact. The stored name is never
	// overwritten: first-seen name wins.
	UpsertByEmail(ownerID, name, email string) (*domain.Company, error)
}
