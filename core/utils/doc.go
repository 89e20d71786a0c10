// Package utils provides small conversion helpers shared by HTTP handlers,
// such as reading integer and boolean query parameters.
package utils
