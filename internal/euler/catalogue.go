package euler

func catalogue() []Problem {
	return []Problem{
		NewProblem(1, "Multiples of 3 or 5", sumMultiples3or5),
		NewProblem(2, "Even Fibonacci Numbers", evenFibonacci),
		NewProblem(3, "Largest Prime Factor", largestPrimeFactor),
		NewProblem(4, "Largest Palindrome Product", largestPalindromeProduct),
		NewProblem(5, "Smallest Multiple", smallestMultiple),
		NewProblem(6, "Sum Square Difference", sumSquareDifference),
		NewProblem(7, "10001st Prime", nthPrime),
		NewProblem(9, "Special Pythagorean Triplet", specialPythagoreanTriplet),
		NewProblem(10, "Summation of Primes", summationOfPrimes),
		NewProblem(12, "Highly Divisible Triangular Number", highlyDivisibleTriangular),
		NewProblem(14, "Longest Collatz Sequence", longestCollatz),
		NewProblem(15, "Lattice Paths", latticePaths),
		NewProblem(16, "Power Digit Sum", powerDigitSum),
		NewProblem(20, "Factorial Digit Sum", factorialDigitSum),
		NewProblem(21, "Amicable Numbers", amicableNumbers),
		NewProblem(25, "1000-digit Fibonacci Number", thousandDigitFibonacci),
		NewProblem(28, "Number Spiral Diagonals", spiralDiagonals),
		NewProblem(29, "Distinct Powers", distinctPowers),
		NewProblem(30, "Digit Fifth Powers", digitFifthPowers),
		NewProblem(31, "Coin Sums", coinSums),
		NewProblem(34, "Digit Factorials", digitFactorials),
		NewProblem(35, "Circular Primes", circularPrimes),
		NewProblem(36, "Double-base Palindromes", doubleBasePalindromes),
		NewProblem(48, "Self Powers", selfPowers),
	}
}
