// Package repository define las interfaces de repositorio del dominio de identidad.
//
// Estas interfaces son contratos de negocio, independientes del almacenamiento.
// Las implementaciones concretas viven en internal/store/pg (PostgreSQL) e
// internal/store/memory (desarrollo local y tests).
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│           Services / Middlewares                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  Users, RefreshTokens, Recovery, APIKeys            │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	              ┌─────────┴─────────┐
//	              ▼                   ▼
//	       ┌─────────────┐     ┌─────────────┐
//	       │  store/pg   │     │ store/memory│
//	       └─────────────┘     └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Los tokens opacos se guardan y buscan por hash (SHA-256), nunca en claro
//   - Errores de dominio están en errors.go
package repository
