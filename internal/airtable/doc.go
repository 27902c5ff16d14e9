// Package airtable provides an HTTP client for a table of the Airtable-style
// records API that backs the todo list.
//
// # Overview
//
// The store is treated as an opaque CRUD backend. Each table is addressed as
// <base url>/<base id>/<table>, authenticated with a bearer token, and every
// row is a Record with a store-assigned id, a createdTime and a Fields object
// holding the title and isCompleted columns.
//
// # Endpoints
//
//   - GET    /<base>/<table>        list, with sort[0][field], sort[0][direction],
//     filterByFormula and pageSize; paged through the offset cursor
//   - POST   /<base>/<table>        create, body {"records":[{"fields":{...}}]}
//   - PATCH  /<base>/<table>        update, body {"records":[{"id":..,"fields":{...}}]}
//   - DELETE /<base>/<table>/<id>   delete
//
// # Errors
//
// Non-2xx responses are returned as *APIError so callers can inspect the
// status and the store's error type with errors.As. Transport and decode
// failures are wrapped with fmt.Errorf.
//
// # Testing
//
// RecordStore is the interface the sync layer depends on; *Client implements
// it and tests substitute in-memory fakes.
package airtable
