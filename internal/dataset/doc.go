// Package dataset is an in-memory typed table for exchange exports.
//
// ReadFile loads a CSV or XLSX file. Each column is typed Number when every
// non-missing cell parses as a decimal, otherwise String. Cells holding an NA
// token such as "", "NA" or "null" are missing. Numbers keep their original
// text so a combined file reproduces its inputs byte for byte.
//
// Merge unions the columns of several datasets in first-seen order and drops
// rows equal to an earlier row. Two rows are equal when every cell has the
// same kind and value, so "1" and "1.0" in a Number column are duplicates
// while a number and the string "1" are not.
package dataset
