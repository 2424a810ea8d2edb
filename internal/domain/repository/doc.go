// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (PostgreSQL, memoria). Las implementaciones
// concretas viven en internal/store/adapters/.
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - InstanceID se pasa explícitamente en queries que lo requieren.
//   - Errores de dominio están en errors.go.
//   - Las mutaciones que forman parte de una cascada (cerrar sesiones
//     competidoras, expirar consent + authorisations) corren dentro de un
//     Store.WithinTx: la cascada commitea completa o no commitea.
package repository
