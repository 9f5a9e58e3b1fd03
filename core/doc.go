// Package core contains the guard contracts, the approval guard and version
// gate, the operation registry, and the service that invokes guarded exchange
// client operations. Storage and transport adapters depend on this package;
// core must not depend on them.
package core
