// Package domain contains the core business entities and domain logic of the
// application: users, uploaded videos, and the validation rules they carry.
// It is independent of any specific infrastructure or delivery mechanism.
package domain
