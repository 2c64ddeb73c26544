// Package tenant defines tenant identity for the core.
//
// The core only needs to know who a tenant is and whether its account is
// operable; everything about request routing, subdomains and sessions lives
// in the excluded handler layer. Account status gates every tenant-scoped
// operation: suspended and terminated tenants are denied unconditionally,
// before billing mode is even considered.
package tenant
