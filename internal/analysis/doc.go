// Package analysis provides local sensitivity tools for scalar models.
//
//   - [CenteredDerivative]: five-point centered finite difference, O(h⁴)
//
// # Domain boundaries
//
// The stencil samples f at x±h and x±2h and never at x itself. Callers must
// keep x at least 2h away from any domain boundary; evaluations that hit a
// sentinel produce a meaningless estimate that is not flagged:
//
//	slope := analysis.CenteredDerivative(model.Power, vOpt, analysis.DefaultStep)
package analysis
