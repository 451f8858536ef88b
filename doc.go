// Package calcgrade parses and evaluates mathematical expressions over real
// and complex scalars, vectors, and matrices, for comparing submitted answers
// against reference answers numerically.
//
// The syntax of expressions is intended to be similar to math you'd write in
// your notes. "2 x y" and "2x(y)" are multiplications of three terms, while
// "f(y)" is a call of the function f. Juxtaposition binds as tightly as
// explicit multiplication and associates left, so "1/2x" is "(1/2)*x".
//
// Unary minus binds less tightly than exponentiation, so "-2^2" is
// "-(2^2)", which is -4. An operand of ^ may itself begin with a unary sign,
// which then applies to the entire remaining power tower: "2^-3" is
// "2^(-3)" and "x^-y^-z" is "x^(-(y^(-z)))".
//
// Square brackets build arrays: "[1, 2, 3]" is a vector, and "[[1, 2], [3,
// 4]]" is a matrix with two rows. A matrix with one row is never equal to a
// vector. Arrays multiply by matrix product rules, and functions which
// require particular shapes report every argument in their errors.
//
// Number literals may carry a suffix such as % or a metric prefix, which
// multiplies the literal when the evaluation context recognizes it.
//
// Parse an expression once and evaluate it for many inputs by cloning a
// context for each set of variable values.
package calcgrade
